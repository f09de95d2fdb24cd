package models

import "strings"

// ContentItem is one imported piece of source media.
//
// Field names match the Instagram import payload, which uses PascalCase keys.
type ContentItem struct {
	ID              ID        `json:"Id"`
	Caption         string    `json:"Caption"`
	MediaURL        string    `json:"MediaUrl"`
	ThumbnailURL    string    `json:"ThumbnailUrl"`
	MediaType       string    `json:"MediaType"`
	DurationSeconds float64   `json:"DurationInSeconds"`
	PublishedAt     Timestamp `json:"PublishedAt"`
	LikeCount       int64     `json:"LikeCount"`
	CommentCount    int64     `json:"CommentCount"`
	PlayCount       int64     `json:"PlayCount"`
}

// MediaTypeReel is the media type Instagram reports for reels.
const MediaTypeReel = "Reel"

// IsReel reports whether the item is a reel rather than a post.
func (c ContentItem) IsReel() bool {
	return strings.EqualFold(c.MediaType, MediaTypeReel)
}

// Source converts the item to the media source sent with a transformation request.
func (c ContentItem) Source() MediaSource {
	return MediaSource{
		MediaURL:        c.MediaURL,
		ThumbnailURL:    c.ThumbnailURL,
		MediaType:       c.MediaType,
		PlatformMediaID: c.ID,
		Caption:         c.Caption,
	}
}

// MediaSource references one content item inside a transformation request.
type MediaSource struct {
	MediaURL        string `json:"mediaUrl"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	MediaType       string `json:"mediaType"`
	PlatformMediaID ID     `json:"platformMediaId"`
	Caption         string `json:"caption"`
}

// ConnectEvent is the completion message a platform connect flow delivers.
//
// Type is "<platform>-auth-success" or "<platform>-auth-error".
type ConnectEvent struct {
	Type    string      `json:"type"`
	Data    ConnectData `json:"data"`
	Message string      `json:"message,omitempty"`
}

// ConnectData carries the imported reels and linked account ids of an Instagram connect.
type ConnectData struct {
	Reels      []ContentItem `json:"reels"`
	AccountIDs []ID          `json:"accountIds"`
}

// Succeeded reports whether the event type ends in "-auth-success".
func (e ConnectEvent) Succeeded() bool {
	return strings.HasSuffix(e.Type, "-auth-success")
}

// Platform returns the platform named by the event type prefix.
func (e ConnectEvent) Platform() (Platform, error) {
	prefix, _, _ := strings.Cut(e.Type, "-auth-")
	return ParsePlatform(prefix)
}
