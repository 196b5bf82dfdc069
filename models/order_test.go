package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOrderTransitionTable(t *testing.T) {
	tests := []struct {
		from OrderState
		to   OrderState
		want bool
	}{
		{OrderInitiated, OrderQuoted, true},
		{OrderQuoted, OrderProvisionallyBooked, true},
		{OrderProvisionallyBooked, OrderConfirmed, true},
		{OrderConfirmed, OrderInProgress, true},
		{OrderInProgress, OrderCompleted, true},

		// No skipping ahead.
		{OrderInitiated, OrderProvisionallyBooked, false},
		{OrderQuoted, OrderConfirmed, false},
		{OrderConfirmed, OrderCompleted, false},

		// CANCELLED from any non-terminal state.
		{OrderInitiated, OrderCancelled, true},
		{OrderQuoted, OrderCancelled, true},
		{OrderInProgress, OrderCancelled, true},
		{OrderCompleted, OrderCancelled, false},
		{OrderCancelled, OrderCancelled, false},
		{OrderFailed, OrderCancelled, false},

		// FAILED from anywhere.
		{OrderInitiated, OrderFailed, true},
		{OrderCompleted, OrderFailed, true},

		// Terminal states go nowhere else.
		{OrderCompleted, OrderInProgress, false},
		{OrderCancelled, OrderQuoted, false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderTerminal(t *testing.T) {
	assert.True(t, OrderCompleted.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.True(t, OrderFailed.Terminal())
	assert.False(t, OrderConfirmed.Terminal())
}

func TestOrderTouchMonotonic(t *testing.T) {
	o := Order{UpdatedAt: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
	o.Touch(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC), o.UpdatedAt)
	o.Touch(time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC), o.UpdatedAt)
}
