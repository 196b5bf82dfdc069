package gateway

import (
	"time"

	"caregate/models"

	"github.com/google/uuid"
)

// Identity is who this gateway is on the network, used to stamp outbound
// contexts.
type Identity struct {
	Domain       string
	CoreVersion  string
	SubscriberID string
	CallbackURI  string
}

// NewContext builds a fresh outbound context for an action originated here.
func (id Identity) NewContext(action, city string) models.Context {
	return models.NewContext(id.Domain, city, action, id.CoreVersion, id.SubscriberID, id.CallbackURI)
}

// Continue derives a context for a follow-up action inside an existing
// transaction: same transaction id, fresh message id.
func (id Identity) Continue(transactionID, action string) models.Context {
	return models.Context{
		Domain:        id.Domain,
		Action:        action,
		CoreVersion:   id.CoreVersion,
		ConsumerID:    id.SubscriberID,
		ConsumerURI:   id.CallbackURI,
		TransactionID: transactionID,
		MessageID:     uuid.NewString(),
		Timestamp:     time.Now().UTC(),
	}
}

// Outbound is the wire shape of a dispatched protocol message.
type Outbound struct {
	Context models.Context `json:"context"`
	Message any            `json:"message"`
}
