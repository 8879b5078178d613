package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType doubles as the routing key of a ledger event.
type EventType string

const (
	EventTransactionCreated EventType = "transaction.created"
	EventTransactionUpdated EventType = "transaction.updated"
	EventTransactionDeleted EventType = "transaction.deleted"
	EventAccountUpdated     EventType = "account.updated"
)

// LedgerEvent announces a committed change to an owner's ledger. It carries
// identifiers only; consumers read current state from the store.
type LedgerEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	Owner         string    `json:"owner"`
	AccountID     int64     `json:"account_id"`
	TransactionID int64     `json:"transaction_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEvent(typ EventType, owner string, accountID, transactionID int64) *LedgerEvent {
	return &LedgerEvent{
		ID:            uuid.NewString(),
		Type:          typ,
		Owner:         owner,
		AccountID:     accountID,
		TransactionID: transactionID,
		Timestamp:     time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects ones no consumer can act on.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.Owner == "" || e.AccountID <= 0 {
		return nil, fmt.Errorf("ledger event %s: missing owner or account", e.ID)
	}
	switch e.Type {
	case EventTransactionCreated, EventTransactionUpdated, EventTransactionDeleted, EventAccountUpdated:
	default:
		return nil, fmt.Errorf("ledger event %s: unknown type %q", e.ID, e.Type)
	}
	return &e, nil
}
