package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Context is the protocol envelope carried on every action and callback. A
// transaction id ties a whole flow together; a message id identifies one
// delivery so duplicates can be recognized.
type Context struct {
	Domain        string    `json:"domain"`
	City          string    `json:"city,omitempty"`
	Action        string    `json:"action"`
	CoreVersion   string    `json:"core_version"`
	ConsumerID    string    `json:"consumer_id"`
	ConsumerURI   string    `json:"consumer_uri,omitempty"`
	ProviderID    string    `json:"provider_id,omitempty"`
	ProviderURI   string    `json:"provider_uri,omitempty"`
	TransactionID string    `json:"transaction_id"`
	MessageID     string    `json:"message_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewContext creates a request context with fresh transaction and message ids.
func NewContext(domain, city, action, coreVersion, consumerID, consumerURI string) Context {
	return Context{
		Domain:        domain,
		City:          city,
		Action:        action,
		CoreVersion:   coreVersion,
		ConsumerID:    consumerID,
		ConsumerURI:   consumerURI,
		TransactionID: uuid.New().String(),
		MessageID:     uuid.New().String(),
		Timestamp:     time.Now().UTC(),
	}
}

// Reply derives a callback context: same transaction, fresh message id.
func (c Context) Reply(action, providerID, providerURI string) Context {
	out := c
	out.Action = action
	out.ProviderID = providerID
	out.ProviderURI = providerURI
	out.MessageID = uuid.New().String()
	out.Timestamp = time.Now().UTC()
	return out
}

// Envelope is the wire shape of a protocol request: context plus an
// action-specific message body.
type Envelope struct {
	Context Context         `json:"context"`
	Message json.RawMessage `json:"message"`
}

// Ack is the synchronous acknowledgement returned by protocol endpoints.
type Ack struct {
	Status string `json:"status"` // "ACK" or "NACK"
	Error  string `json:"error,omitempty"`
}

func AckResponse() Ack            { return Ack{Status: "ACK"} }
func NackResponse(msg string) Ack { return Ack{Status: "NACK", Error: msg} }
