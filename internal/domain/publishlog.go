package domain

import "time"

// PublishLogEntry is one row of the append-only publish audit trail. Entries
// are never updated or deleted; the platform is captured at attempt time.
type PublishLogEntry struct {
	ID           int64
	PostID       int64
	Platform     Platform
	Succeeded    bool
	ErrorMessage *string
	NotifiedAt   *time.Time
	CreatedAt    time.Time
}
