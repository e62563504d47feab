package domain

import "time"

// Series groups the posts produced by one generation request.
type Series struct {
	ID          int64
	UserID      int64
	TopicDetail string
	NumPosts    int
	Options     *string
	CreatedAt   time.Time
}

type Recurrence string

const (
	RecurrenceDaily  Recurrence = "daily"
	RecurrenceWeekly Recurrence = "weekly"
)

// GenerateSeriesRequest holds the caller-supplied generation options.
type GenerateSeriesRequest struct {
	TopicDetail                 string     `json:"topicDetail"`
	NumPosts                    int        `json:"numPosts"`
	Platform                    string     `json:"platform"`
	Linked                      bool       `json:"linked"`
	Tone                        string     `json:"tone,omitempty"`
	Length                      string     `json:"length,omitempty"`
	TikTokScriptDurationSeconds int        `json:"tikTokScriptDurationSeconds,omitempty"`
	StartDate                   *time.Time `json:"startDate,omitempty"`
	Recurrence                  Recurrence `json:"recurrence,omitempty"`
	ScheduledTimeOfDay          string     `json:"scheduledTimeOfDay,omitempty"`
}

// GeneratedPost is one item produced by the LLM before it becomes a Post.
// Hashtags carries the raw JSON array text when the model returned one.
type GeneratedPost struct {
	Content  string
	Script   *string
	Hashtags *string
}

// SeriesResult is the outcome of a batch generation.
type SeriesResult struct {
	SeriesID int64
	PostIDs  []int64
}
