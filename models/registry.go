package models

import "time"

// SubscriberRole distinguishes network participants.
type SubscriberRole string

const (
	RoleEUA     SubscriberRole = "EUA"
	RoleHSPA    SubscriberRole = "HSPA"
	RoleGateway SubscriberRole = "GATEWAY"
)

// Subscriber is a network-registry record for one participant: identity,
// callback endpoint and the key its requests are signed with.
type Subscriber struct {
	ID          string         `bson:"id" json:"id"`
	Role        SubscriberRole `bson:"role" json:"role"`
	CallbackURI string         `bson:"callback_uri" json:"callback_uri"`
	SigningKey  string         `bson:"signing_key" json:"-"`
	Status      string         `bson:"status" json:"status"` // "SUBSCRIBED" or "SUSPENDED"
	City        string         `bson:"city,omitempty" json:"city,omitempty"`
	Domain      string         `bson:"domain,omitempty" json:"domain,omitempty"`
	Version     int64          `bson:"version" json:"-"`
	CreatedAt   time.Time      `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `bson:"updated_at" json:"updated_at"`
}

// Subscribed reports whether the participant may exchange messages.
func (s Subscriber) Subscribed() bool { return s.Status == "SUBSCRIBED" }

// ParticipantRef returns the dispatch reference for fan-out.
func (s Subscriber) ParticipantRef() ParticipantRef {
	return ParticipantRef{ID: s.ID, CallbackURI: s.CallbackURI}
}
