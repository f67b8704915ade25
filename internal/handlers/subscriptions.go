package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/tubeline/backend/internal/auth"
	"github.com/tubeline/backend/internal/logging"
	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

// SubscriptionHandler manages subscriber to channel edges.
type SubscriptionHandler struct {
	Subscriptions SubscriptionStore
	Accounts      AccountStore
	NowFunc       func() time.Time
}

// Toggle handles POST /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Subscriptions == nil || h.Accounts == nil {
		logger.Error("subscription dependencies unavailable", "hasSubscriptions", h.Subscriptions != nil, "hasAccounts", h.Accounts != nil)
		respondError(ctx, w, http.StatusInternalServerError, "subscription services unavailable")
		return
	}

	channelID, ok := pathID(r, "channelId")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid channel id")
		return
	}
	viewerID := auth.ViewerIDFromContext(ctx)

	_, err := h.Subscriptions.FindEdge(ctx, viewerID, channelID)
	switch {
	case err == nil:
		if err := h.Subscriptions.Delete(ctx, viewerID, channelID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			logger.Error("unsubscribe", "channelId", channelID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to update subscription")
			return
		}
		respond(ctx, w, http.StatusOK, subscriptionState{Subscribed: false}, "Unsubscribed successfully")
		return
	case !errors.Is(err, repositories.ErrNotFound):
		logger.Error("subscription lookup", "channelId", channelID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update subscription")
		return
	}

	if _, err := h.Accounts.FindByID(ctx, channelID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
			return
		}
		logger.Error("subscription channel lookup", "channelId", channelID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update subscription")
		return
	}

	edge := models.SubscriptionEdge{SubscriberID: viewerID, ChannelID: channelID, CreatedAt: nowOrDefault(h.NowFunc)}
	if err := h.Subscriptions.Create(ctx, edge); err != nil {
		switch {
		case errors.Is(err, repositories.ErrConflict):
			respond(ctx, w, http.StatusOK, subscriptionState{Subscribed: true}, "Already subscribed")
		case errors.Is(err, repositories.ErrNotFound):
			respondError(ctx, w, http.StatusNotFound, "channel does not exist")
		default:
			logger.Error("subscribe", "channelId", channelID, "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "unable to update subscription")
		}
		return
	}

	if viewerID == channelID {
		logger.Warn("account subscribed to its own channel", "channelId", channelID)
	}
	respond(ctx, w, http.StatusCreated, subscriptionState{Subscribed: true}, "Subscribed successfully")
}

// Subscribers handles GET /api/v1/subscriptions/c/{channelId}.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Subscriptions == nil {
		logger.Error("subscription store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "subscription services unavailable")
		return
	}

	channelID, ok := pathID(r, "channelId")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid channel id")
		return
	}

	accounts, err := h.Subscriptions.ListSubscribers(ctx, channelID)
	if err != nil {
		logger.Error("list subscribers", "channelId", channelID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load subscribers")
		return
	}

	respond(ctx, w, http.StatusOK, publicAccounts(accounts), "Subscribers fetched successfully")
}

// SubscribedChannels handles GET /api/v1/subscriptions/u/{subscriberId}.
func (h SubscriptionHandler) SubscribedChannels(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if h.Subscriptions == nil {
		logger.Error("subscription store unavailable")
		respondError(ctx, w, http.StatusInternalServerError, "subscription services unavailable")
		return
	}

	subscriberID, ok := pathID(r, "subscriberId")
	if !ok {
		respondError(ctx, w, http.StatusBadRequest, "invalid subscriber id")
		return
	}

	accounts, err := h.Subscriptions.ListSubscribedChannels(ctx, subscriberID)
	if err != nil {
		logger.Error("list subscribed channels", "subscriberId", subscriberID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load subscriptions")
		return
	}

	respond(ctx, w, http.StatusOK, publicAccounts(accounts), "Subscribed channels fetched successfully")
}

type subscriptionState struct {
	Subscribed bool `json:"subscribed"`
}

func publicAccounts(accounts []models.Account) []models.Account {
	out := make([]models.Account, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, a.Public())
	}
	return out
}
