package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

type inMemorySubscriptionStore struct {
	mu       sync.Mutex
	edges    map[[2]string]models.SubscriptionEdge
	accounts *inMemoryAccountStore
}

func newInMemorySubscriptionStore(accounts *inMemoryAccountStore) *inMemorySubscriptionStore {
	return &inMemorySubscriptionStore{edges: make(map[[2]string]models.SubscriptionEdge), accounts: accounts}
}

func (s *inMemorySubscriptionStore) FindEdge(_ context.Context, subscriberID, channelID string) (models.SubscriptionEdge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	edge, ok := s.edges[[2]string{subscriberID, channelID}]
	if !ok {
		return models.SubscriptionEdge{}, repositories.ErrNotFound
	}
	return edge, nil
}

func (s *inMemorySubscriptionStore) Create(_ context.Context, edge models.SubscriptionEdge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{edge.SubscriberID, edge.ChannelID}
	if _, ok := s.edges[key]; ok {
		return repositories.ErrConflict
	}
	s.edges[key] = edge
	return nil
}

func (s *inMemorySubscriptionStore) Delete(_ context.Context, subscriberID, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{subscriberID, channelID}
	if _, ok := s.edges[key]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.edges, key)
	return nil
}

func (s *inMemorySubscriptionStore) ListSubscribers(_ context.Context, channelID string) ([]models.Account, error) {
	return s.list(func(edge models.SubscriptionEdge) (string, bool) { return edge.SubscriberID, edge.ChannelID == channelID })
}

func (s *inMemorySubscriptionStore) ListSubscribedChannels(_ context.Context, subscriberID string) ([]models.Account, error) {
	return s.list(func(edge models.SubscriptionEdge) (string, bool) { return edge.ChannelID, edge.SubscriberID == subscriberID })
}

func (s *inMemorySubscriptionStore) list(match func(models.SubscriptionEdge) (string, bool)) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Account
	for _, edge := range s.edges {
		if id, ok := match(edge); ok {
			out = append(out, s.accounts.get(id))
		}
	}
	return out, nil
}

func TestSubscriptionHandlerToggle(t *testing.T) {
	accounts := newInMemoryAccountStore(
		models.Account{ID: ownerID, Handle: "owner", Email: "owner@example.com"},
		models.Account{ID: viewerID, Handle: "viewer", Email: "viewer@example.com"},
	)
	store := newInMemorySubscriptionStore(accounts)
	handler := SubscriptionHandler{Subscriptions: store, Accounts: accounts, NowFunc: fixedClock}

	toggle := func(channelID string) *httptest.ResponseRecorder {
		req := withParams(httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/c/"+channelID, nil), map[string]string{"channelId": channelID})
		rec := httptest.NewRecorder()
		handler.Toggle(rec, withViewer(req, viewerID))
		return rec
	}

	rec := toggle(ownerID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var state subscriptionState
	decodeEnvelope(t, rec, &state)
	if !state.Subscribed {
		t.Fatal("expected subscribed state")
	}
	edge, err := store.FindEdge(context.Background(), viewerID, ownerID)
	if err != nil || !edge.CreatedAt.Equal(fixedNow) {
		t.Fatalf("expected stored edge, got %+v err %v", edge, err)
	}

	rec = toggle(ownerID)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	decodeEnvelope(t, rec, &state)
	if state.Subscribed {
		t.Fatal("expected unsubscribed state")
	}

	if rec := toggle(missingID); rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown channel got %d", rec.Code)
	}
	if rec := toggle("bogus"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for malformed id got %d", rec.Code)
	}

	// subscribing to your own channel is allowed
	if rec := toggle(viewerID); rec.Code != http.StatusCreated {
		t.Fatalf("expected self subscription to succeed got %d", rec.Code)
	}
}

func TestSubscriptionHandlerLists(t *testing.T) {
	accounts := newInMemoryAccountStore(
		models.Account{ID: ownerID, Handle: "owner", Email: "owner@example.com"},
		models.Account{ID: viewerID, Handle: "viewer", Email: "viewer@example.com"},
	)
	store := newInMemorySubscriptionStore(accounts)
	if err := store.Create(context.Background(), models.SubscriptionEdge{SubscriberID: viewerID, ChannelID: ownerID}); err != nil {
		t.Fatalf("seed edge: %v", err)
	}
	handler := SubscriptionHandler{Subscriptions: store, Accounts: accounts}

	tests := []struct {
		name       string
		call       http.HandlerFunc
		param      string
		id         string
		wantHandle string
		wantCount  int
	}{
		{name: "subscribers", call: handler.Subscribers, param: "channelId", id: ownerID, wantHandle: "viewer", wantCount: 1},
		{name: "subscribed channels", call: handler.SubscribedChannels, param: "subscriberId", id: viewerID, wantHandle: "owner", wantCount: 1},
		{name: "no subscribers", call: handler.Subscribers, param: "channelId", id: viewerID, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{tt.param: tt.id})
			rec := httptest.NewRecorder()

			tt.call(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200 got %d", rec.Code)
			}
			var got []models.Account
			decodeEnvelope(t, rec, &got)
			if got == nil || len(got) != tt.wantCount {
				t.Fatalf("expected %d accounts as an array, got %#v", tt.wantCount, got)
			}
			if tt.wantCount > 0 && (got[0].Handle != tt.wantHandle || got[0].Email != "") {
				t.Fatalf("expected public %s account, got %+v", tt.wantHandle, got[0])
			}
		})
	}
}
