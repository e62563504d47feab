package domain

import (
	"strings"
	"time"
)

type Platform string

const (
	PlatformLinkedIn  Platform = "linkedin"
	PlatformSkool     Platform = "skool"
	PlatformInstagram Platform = "instagram"
	PlatformBluesky   Platform = "bluesky"
	PlatformFacebook  Platform = "facebook"
	PlatformTikTok    Platform = "tiktok"
)

// ParsePlatform maps a case-insensitive platform name to its enum value.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(strings.ToLower(s)) {
	case PlatformLinkedIn:
		return PlatformLinkedIn, true
	case PlatformSkool:
		return PlatformSkool, true
	case PlatformInstagram:
		return PlatformInstagram, true
	case PlatformBluesky:
		return PlatformBluesky, true
	case PlatformFacebook:
		return PlatformFacebook, true
	case PlatformTikTok:
		return PlatformTikTok, true
	}
	return "", false
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
	StatusFailed    Status = "failed"
)

// Post is the unit of work for the publish pipeline. Status transitions to
// Published or Failed are owned exclusively by the runner.
type Post struct {
	ID             int64
	UserID         int64
	TopicSummary   string
	Platform       Platform
	Status         Status
	ScheduledAt    *time.Time
	PublishedAt    *time.Time
	ExternalPostID *string
	Content        string
	Script         *string
	ImageURL       *string
	Metadata       *string
	Tone           *string
	Length         *string
	ClaimedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DuePost is the slice of a post the runner needs, joined with the owner's
// contact address so no per-post user lookup is required.
type DuePost struct {
	ID        int64
	UserID    int64
	Content   string
	Platform  Platform
	ImageURL  *string
	Script    *string
	Metadata  *string
	UserEmail string
}

// PublishRecord is the terminal write for one post in one run: the status
// transition plus the matching audit log entry, committed atomically.
type PublishRecord struct {
	PostID         int64
	Platform       Platform
	Succeeded      bool
	ExternalPostID *string
	ErrorMessage   *string
	NotifiedAt     *time.Time
	FinishedAt     time.Time
}
