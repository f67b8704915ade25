package httpserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServerServeAndShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := New(0, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), discardLogger())

	served := make(chan error, 1)
	go func() { served <- srv.Serve(listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Fatalf("expected status 418 got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("expected clean exit after shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("server did not stop")
	}
}

func TestNewServerAddr(t *testing.T) {
	if got := New(8080, http.NotFoundHandler(), nil).Addr(); got != ":8080" {
		t.Fatalf("expected :8080 got %q", got)
	}
}

func TestRunShutdownRunsEveryStep(t *testing.T) {
	var order []string
	boom := errors.New("boom")

	err := RunShutdown(context.Background(), discardLogger(),
		Step{Name: "http", Fn: func(context.Context) error { order = append(order, "http"); return nil }},
		Step{Name: "janitor", Fn: func(context.Context) error { order = append(order, "janitor"); return boom }},
		Step{Name: "nil"},
		Step{Name: "database", Fn: func(context.Context) error { order = append(order, "database"); return nil }},
	)

	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if len(order) != 3 || order[0] != "http" || order[1] != "janitor" || order[2] != "database" {
		t.Fatalf("unexpected step order %v", order)
	}
}
