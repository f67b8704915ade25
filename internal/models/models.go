package models

import "time"

// Account represents a registered user. Every account is also a channel.
type Account struct {
	ID            string    `json:"id"`
	Handle        string    `json:"username"`
	FullName      string    `json:"fullName"`
	Email         string    `json:"email,omitempty"`
	PasswordHash  string    `json:"-"`
	AvatarURL     string    `json:"avatar"`
	AvatarKey     string    `json:"-"`
	CoverImageURL string    `json:"coverImage"`
	CoverImageKey string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// OwnerSummary is the public subset of an account embedded under videos and comments.
type OwnerSummary struct {
	FullName string `json:"fullName"`
	Handle   string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Owner projects the account to the fields other viewers may see next to content.
func (a Account) Owner() OwnerSummary {
	return OwnerSummary{FullName: a.FullName, Handle: a.Handle, Avatar: a.AvatarURL}
}

// Public strips the email address from the account.
func (a Account) Public() Account {
	a.Email = ""
	return a
}

// Video is an uploaded piece of content owned by a single account.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"ownerId"`
	VideoURL     string    `json:"videoFile"`
	VideoKey     string    `json:"-"`
	ThumbnailURL string    `json:"thumbnail"`
	ThumbnailKey string    `json:"-"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Duration     float64   `json:"duration"`
	Views        int64     `json:"views"`
	IsPublished  bool      `json:"isPublished"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VideoWithOwner embeds the owner's public profile next to the video fields.
type VideoWithOwner struct {
	Video
	Owner OwnerSummary `json:"owner"`
}

// VideoPage is one page of a video listing.
type VideoPage struct {
	Videos      []VideoWithOwner `json:"videos"`
	TotalVideos int64            `json:"totalVideos"`
	Page        int              `json:"page"`
	Limit       int              `json:"limit"`
	TotalPages  int              `json:"totalPages"`
	HasNextPage bool             `json:"hasNextPage"`
}

// SubscriptionEdge records that SubscriberID follows the channel ChannelID.
type SubscriptionEdge struct {
	SubscriberID string    `json:"subscriberId"`
	ChannelID    string    `json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ChannelProfile is an account enriched with relationship counters relative to a viewer.
type ChannelProfile struct {
	ID                string `json:"id"`
	Handle            string `json:"username"`
	FullName          string `json:"fullName"`
	Email             string `json:"email,omitempty"`
	Avatar            string `json:"avatar"`
	CoverImage        string `json:"coverImage"`
	SubscribersCount  int64  `json:"subscribersCount"`
	SubscribedToCount int64  `json:"subscribedToCount"`
	IsSubscribed      bool   `json:"isSubscribed"`
}

// Comment is a text reply left on a video.
type Comment struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	OwnerID   string    `json:"ownerId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentWithOwner embeds the author's public profile next to the comment.
type CommentWithOwner struct {
	Comment
	Owner OwnerSummary `json:"owner"`
}

// Playlist is an ordered, owner-curated list of videos.
type Playlist struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	VideoIDs    []string  `json:"videos"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
