package domain

import "time"

// CaptureSource identifies where a ProductContext was captured from
type CaptureSource string

const (
	SourceConversation CaptureSource = "conversation"
	SourcePage         CaptureSource = "page"
	SourceManual       CaptureSource = "manual"
	SourceFollowup     CaptureSource = "followup"
)

// Valid reports whether the source is one of the closed set of capture origins
func (s CaptureSource) Valid() bool {
	switch s {
	case SourceConversation, SourcePage, SourceManual, SourceFollowup:
		return true
	}
	return false
}

// ResearchEntry is one remembered research topic, persisted and deduplicated
// by the history store. At most one entry exists per conversation ID.
type ResearchEntry struct {
	ID             string    `json:"id"`
	Query          string    `json:"query"`
	ProductName    string    `json:"productName"`
	Requirements   []string  `json:"requirements"`
	Categories     []string  `json:"categories"`
	Keywords       []string  `json:"keywords"`
	Timestamp      time.Time `json:"timestamp"` // creation time, preserved across updates
	LastUsed       time.Time `json:"lastUsed"`  // advanced on every match or reuse
	ConversationID string    `json:"conversationId,omitempty"`
}

// TrackedLink is a URL observed inside a source conversation and remembered
// as likely-relevant if the user later navigates to it.
type TrackedLink struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Text   string `json:"text,omitempty"`
}

// ProductContext is the ephemeral "currently researching X" state, at most one
// per session. It is created or replaced wholesale on every capture and is
// read-only to everything except the session holder.
type ProductContext struct {
	Query             string        `json:"query"`
	Requirements      []string      `json:"requirements"`
	Timestamp         time.Time     `json:"timestamp"`
	Source            CaptureSource `json:"source"`
	MentionedProducts []string      `json:"mentionedProducts,omitempty"`
	TrackedLinks      []TrackedLink `json:"trackedLinks,omitempty"`
	ConversationID    string        `json:"conversationId,omitempty"`
	MessageCount      int           `json:"messageCount,omitempty"`
	RecentMessages    []string      `json:"recentMessages,omitempty"`
}
