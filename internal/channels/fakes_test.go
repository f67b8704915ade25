package channels

import (
	"context"
	"sync"

	"github.com/tubeline/backend/internal/models"
	"github.com/tubeline/backend/internal/repositories"
)

type memoryRelationships struct {
	mu    sync.RWMutex
	edges []models.SubscriptionEdge

	countErr       error
	subscribersErr error
	subscriberCall int
}

func (m *memoryRelationships) subscribe(subscriberID, channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, models.SubscriptionEdge{SubscriberID: subscriberID, ChannelID: channelID})
}

func (m *memoryRelationships) unsubscribe(subscriberID, channelID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.edges[:0]
	for _, edge := range m.edges {
		if edge.SubscriberID == subscriberID && edge.ChannelID == channelID {
			continue
		}
		kept = append(kept, edge)
	}
	m.edges = kept
}

func (m *memoryRelationships) FindEdge(ctx context.Context, subscriberID, channelID string) (models.SubscriptionEdge, error) {
	if err := ctx.Err(); err != nil {
		return models.SubscriptionEdge{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, edge := range m.edges {
		if edge.SubscriberID == subscriberID && edge.ChannelID == channelID {
			return edge, nil
		}
	}
	return models.SubscriptionEdge{}, repositories.ErrNotFound
}

func (m *memoryRelationships) CountByChannel(ctx context.Context, channelID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.countErr != nil {
		return 0, m.countErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, edge := range m.edges {
		if edge.ChannelID == channelID {
			n++
		}
	}
	return n, nil
}

func (m *memoryRelationships) CountBySubscriber(ctx context.Context, subscriberID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if m.countErr != nil {
		return 0, m.countErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, edge := range m.edges {
		if edge.SubscriberID == subscriberID {
			n++
		}
	}
	return n, nil
}

func (m *memoryRelationships) SubscriberIDs(ctx context.Context, channelID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.subscriberCall++
	m.mu.Unlock()
	if m.subscribersErr != nil {
		return nil, m.subscribersErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for _, edge := range m.edges {
		if edge.ChannelID == channelID {
			ids = append(ids, edge.SubscriberID)
		}
	}
	return ids, nil
}

type memoryCatalog struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	videos   map[string]models.Video
	history  map[string][]string

	accountErr error
	videoErr   error
	historyErr error
}

func newMemoryCatalog() *memoryCatalog {
	return &memoryCatalog{
		accounts: make(map[string]models.Account),
		videos:   make(map[string]models.Video),
		history:  make(map[string][]string),
	}
}

func (c *memoryCatalog) addAccount(id, handle string) models.Account {
	account := models.Account{
		ID:        id,
		Handle:    handle,
		FullName:  "Name of " + handle,
		Email:     handle + "@example.com",
		AvatarURL: "https://cdn.example.com/avatars/" + handle + ".png",
	}
	c.mu.Lock()
	c.accounts[id] = account
	c.mu.Unlock()
	return account
}

func (c *memoryCatalog) addVideo(id, ownerID string) models.Video {
	video := models.Video{ID: id, OwnerID: ownerID, Title: "video " + id, IsPublished: true}
	c.mu.Lock()
	c.videos[id] = video
	c.mu.Unlock()
	return video
}

func (c *memoryCatalog) deleteVideo(id string) {
	c.mu.Lock()
	delete(c.videos, id)
	c.mu.Unlock()
}

func (c *memoryCatalog) watch(accountID string, videoIDs ...string) {
	c.mu.Lock()
	c.history[accountID] = append(c.history[accountID], videoIDs...)
	c.mu.Unlock()
}

func (c *memoryCatalog) FindAccountByHandle(ctx context.Context, handle string) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}
	if c.accountErr != nil {
		return models.Account{}, c.accountErr
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, account := range c.accounts {
		if account.Handle == handle {
			return account, nil
		}
	}
	return models.Account{}, repositories.ErrNotFound
}

func (c *memoryCatalog) FindAccountByID(ctx context.Context, id string) (models.Account, error) {
	if err := ctx.Err(); err != nil {
		return models.Account{}, err
	}
	if c.accountErr != nil {
		return models.Account{}, c.accountErr
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	account, ok := c.accounts[id]
	if !ok {
		return models.Account{}, repositories.ErrNotFound
	}
	return account, nil
}

func (c *memoryCatalog) FindAccountsByIDs(ctx context.Context, ids []string) (map[string]models.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.Account, len(ids))
	for _, id := range ids {
		if account, ok := c.accounts[id]; ok {
			out[id] = account
		}
	}
	return out, nil
}

func (c *memoryCatalog) FindVideosByIDs(ctx context.Context, ids []string) (map[string]models.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.videoErr != nil {
		return nil, c.videoErr
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.Video, len(ids))
	for _, id := range ids {
		if video, ok := c.videos[id]; ok {
			out[id] = video
		}
	}
	return out, nil
}

func (c *memoryCatalog) WatchHistory(ctx context.Context, accountID string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.historyErr != nil {
		return nil, c.historyErr
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.history[accountID]...), nil
}
