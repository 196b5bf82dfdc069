package search

import (
	"context"
	"errors"
	stdsync "sync"
	"time"

	"caregate/apperr"
	"caregate/database/repository/session"
	"caregate/gateway"
	"caregate/models"
	"caregate/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config tunes one correlator instance.
type Config struct {
	// Timeout is how long a session stays open without quorum.
	Timeout time.Duration
	// Quorum closes the session early once this many responses arrive.
	// Zero means wait for every participant or the timeout.
	Quorum int
	// MaxParticipants caps the fan-out set; extras are dropped.
	MaxParticipants int
	// FanOutLimit bounds concurrent dispatches.
	FanOutLimit int
	// MergePolicy picks how overlapping responses fold together.
	MergePolicy string
}

// Correlator runs multi-party search rounds: it fans a search out to the
// participants, collects their callbacks under a per-session lock, and
// closes the session on quorum, completion, explicit close or deadline.
type Correlator struct {
	Store      sessionRepo.Store
	Dispatcher gateway.Dispatcher
	Clock      utils.Clock
	Cfg        Config

	locks *utils.KeyedMutex

	mu     stdsync.Mutex
	timers map[string]*time.Timer
}

func NewCorrelator(store sessionRepo.Store, dispatcher gateway.Dispatcher, clock utils.Clock, cfg Config) *Correlator {
	return &Correlator{
		Store:      store,
		Dispatcher: dispatcher,
		Clock:      clock,
		Cfg:        cfg,
		locks:      utils.NewKeyedMutex(),
		timers:     make(map[string]*time.Timer),
	}
}

// Open starts a session keyed by the transaction id and dispatches the
// search to every participant. A redelivered search for a known
// transaction returns the stored session untouched: no new fan-out, no
// fresh timer, and a settled session stays settled. A participant that
// cannot be reached is logged and skipped; the round still runs for the
// rest.
func (c *Correlator) Open(ctx context.Context, env models.Context, intent models.SearchIntent, participants []models.ParticipantRef) (*models.TransactionSession, error) {
	if c.Cfg.MaxParticipants > 0 && len(participants) > c.Cfg.MaxParticipants {
		participants = participants[:c.Cfg.MaxParticipants]
	}

	c.locks.Lock(env.TransactionID)
	existing, err := c.Store.Get(ctx, env.TransactionID)
	if err == nil {
		c.locks.Unlock(env.TransactionID)
		return existing, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		c.locks.Unlock(env.TransactionID)
		return nil, err
	}

	now := c.Clock.Now()
	session := &models.TransactionSession{
		ID:           env.TransactionID,
		Intent:       intent,
		Participants: participants,
		Responses:    make(map[string]models.SearchResult),
		Status:       models.SessionOpen,
		CreatedAt:    now,
		Deadline:     now.Add(c.Cfg.Timeout),
	}
	if err := c.Store.Put(ctx, session); err != nil {
		c.locks.Unlock(env.TransactionID)
		return nil, err
	}
	c.armTimer(session.ID, c.Cfg.Timeout)
	c.locks.Unlock(env.TransactionID)

	out := gateway.Outbound{Context: env, Message: models.SearchMessage{Intent: intent}}
	g, gctx := errgroup.WithContext(ctx)
	if c.Cfg.FanOutLimit > 0 {
		g.SetLimit(c.Cfg.FanOutLimit)
	}
	for _, p := range participants {
		p := p
		g.Go(func() error {
			if err := c.Dispatcher.Dispatch(gctx, p, "search", out); err != nil {
				utils.GetLogger().Warn("search dispatch failed",
					zap.String("session_id", session.ID),
					zap.String("participant", p.ID),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait() // dispatch errors are logged, never fatal

	utils.GetLogger().Info("search session opened",
		zap.String("session_id", session.ID),
		zap.Int("participants", len(participants)))
	return session, nil
}

// RecordResponse stores one participant's callback. Responses after close
// are absorbed without effect, a second response from the same participant
// keeps the first, and a responder that was never asked is rejected.
func (c *Correlator) RecordResponse(ctx context.Context, sessionID, participantID string, result models.SearchResult) (*models.TransactionSession, error) {
	c.locks.Lock(sessionID)
	defer c.locks.Unlock(sessionID)

	session, err := c.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Closed() {
		return session, nil
	}
	if !session.Dispatched(participantID) {
		return nil, &apperr.NotFoundError{Entity: "participant", ID: participantID}
	}
	if _, dup := session.Responses[participantID]; dup {
		return session, nil
	}

	session.Responses[participantID] = result
	session.Arrival = append(session.Arrival, participantID)

	done := len(session.Responses) >= len(session.Participants) ||
		(c.Cfg.Quorum > 0 && len(session.Responses) >= c.Cfg.Quorum)
	if done {
		return session, c.closeLocked(ctx, session)
	}
	return session, c.Store.Put(ctx, session)
}

// Get returns the session as stored.
func (c *Correlator) Get(ctx context.Context, sessionID string) (*models.TransactionSession, error) {
	return c.Store.Get(ctx, sessionID)
}

// Close finalizes a session now. Closing twice is a no-op returning the
// settled session.
func (c *Correlator) Close(ctx context.Context, sessionID string) (*models.TransactionSession, error) {
	c.locks.Lock(sessionID)
	defer c.locks.Unlock(sessionID)

	session, err := c.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Closed() {
		return session, nil
	}
	return session, c.closeLocked(ctx, session)
}

// closeLocked merges the collected responses and settles the status: a
// close before the deadline is CLOSED, at or past it TIMED_OUT. Callers
// hold the session lock.
func (c *Correlator) closeLocked(ctx context.Context, session *models.TransactionSession) error {
	if c.Clock.Now().Before(session.Deadline) {
		session.Status = models.SessionClosed
	} else {
		session.Status = models.SessionTimedOut
	}
	session.Aggregate = Merge(c.Cfg.MergePolicy, session.Arrival, session.Responses)
	c.disarmTimer(session.ID)

	if err := c.Store.Put(ctx, session); err != nil {
		return err
	}
	utils.GetLogger().Info("search session closed",
		zap.String("session_id", session.ID),
		zap.String("status", string(session.Status)),
		zap.Int("responses", len(session.Responses)))
	return nil
}

func (c *Correlator) armTimer(sessionID string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timers[sessionID] = time.AfterFunc(d, func() {
		if _, err := c.Close(context.Background(), sessionID); err != nil {
			utils.GetLogger().Warn("deadline close failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	})
}

func (c *Correlator) disarmTimer(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.timers[sessionID]; ok {
		t.Stop()
		delete(c.timers, sessionID)
	}
}
