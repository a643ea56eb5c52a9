package amqp

import (
	"encoding/json"
	"time"
)

// RoutingKeyLedgerCreated is the routing key and message type of new ledger entries.
const RoutingKeyLedgerCreated = "ledger.created"

// LedgerEntryMessage carries only identifiers; the worker loads the entry from the database.
type LedgerEntryMessage struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEntryMessage(id, ownerID int64) *LedgerEntryMessage {
	return &LedgerEntryMessage{
		ID:        id,
		OwnerID:   ownerID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEntryMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEntryMessageFromJSON creates a message from JSON bytes
func LedgerEntryMessageFromJSON(data []byte) (*LedgerEntryMessage, error) {
	var msg LedgerEntryMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
