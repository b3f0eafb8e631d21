package domain

import (
	"sort"
	"strings"
	"time"
)

// Message is an immutable direct message between two users.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Message        string    `json:"message"`
	Timestamp      time.Time `json:"timestamp"`
}

// ConversationID derives the partition key for the conversation between a
// and b. The result does not depend on argument order.
func ConversationID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}
