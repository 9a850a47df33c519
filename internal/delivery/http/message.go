package http

import (
	"encoding/json"

	"github.com/shoplens/backend/internal/domain"
)

// MessageType identifies one request kind on the message endpoint
type MessageType string

// The closed set of request kinds. Anything else is rejected at the
// boundary, never silently ignored.
const (
	MessageSaveContext        MessageType = "saveContext"
	MessageGetContext         MessageType = "getContext"
	MessageClearContext       MessageType = "clearContext"
	MessageHasContext         MessageType = "hasContext"
	MessageCheckSite          MessageType = "checkSite"
	MessageExtractProducts    MessageType = "extractProducts"
	MessageRankProducts       MessageType = "rankProducts"
	MessageGetHistory         MessageType = "getHistory"
	MessageDeleteHistoryEntry MessageType = "deleteHistoryEntry"
)

// Valid reports whether the type is one of the known request kinds
func (t MessageType) Valid() bool {
	switch t {
	case MessageSaveContext, MessageGetContext, MessageClearContext,
		MessageHasContext, MessageCheckSite, MessageExtractProducts,
		MessageRankProducts, MessageGetHistory, MessageDeleteHistoryEntry:
		return true
	}
	return false
}

// Message is the envelope every request arrives in. The payload shape
// depends on the type and is decoded by the matching handler; kinds that
// carry no input (getContext, clearContext, hasContext, getHistory) may
// omit it entirely.
type Message struct {
	Type    MessageType     `json:"type" binding:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// rankProductsPayload carries candidate products and the research context
// to score them against. An empty context falls back to the session one.
type rankProductsPayload struct {
	Context  domain.RankContext     `json:"context"`
	Products []domain.ProductRecord `json:"products"`
}

// deleteHistoryPayload names the research entry to remove
type deleteHistoryPayload struct {
	ID string `json:"id"`
}
