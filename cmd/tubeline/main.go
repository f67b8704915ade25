package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/tubeline/backend/internal/app"
)

func main() {
	if err := app.Run(context.Background(), os.Args[1:]); err != nil {
		slog.Error("tubeline exited", "error", err)
		os.Exit(1)
	}
}
