package models

import "time"

// SessionStatus is the lifecycle of a transaction session. The only legal
// moves are OPEN -> CLOSED and OPEN -> TIMED_OUT, exactly once.
type SessionStatus string

const (
	SessionOpen     SessionStatus = "OPEN"
	SessionClosed   SessionStatus = "CLOSED"
	SessionTimedOut SessionStatus = "TIMED_OUT"
)

// ParticipantRef identifies a remote responder and where to reach it.
type ParticipantRef struct {
	ID          string `json:"id"`
	CallbackURI string `json:"callback_uri"`
}

// TransactionSession tracks one multi-party search: who was asked, who has
// answered, and the merged aggregate once closed. Sessions are short-lived
// and discarded after close.
type TransactionSession struct {
	ID           string                  `json:"id"`
	Intent       SearchIntent            `json:"intent"`
	Participants []ParticipantRef        `json:"participants"`
	Responses    map[string]SearchResult `json:"responses"`
	Arrival      []string                `json:"arrival"` // participant ids in arrival order
	Status       SessionStatus           `json:"status"`
	Aggregate    *SearchResult           `json:"aggregate,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	Deadline     time.Time               `json:"deadline"`
}

// Closed reports whether the session has reached a terminal status.
func (s *TransactionSession) Closed() bool {
	return s.Status != SessionOpen
}

// Dispatched reports whether the participant was part of the fan-out.
func (s *TransactionSession) Dispatched(participantID string) bool {
	for _, p := range s.Participants {
		if p.ID == participantID {
			return true
		}
	}
	return false
}
