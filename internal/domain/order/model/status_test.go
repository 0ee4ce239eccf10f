package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"Forward step", StatusCreated, StatusConfirmed, true},
		{"Forward skip for shipping orders", StatusConfirmed, StatusPaid, true},
		{"Skip straight to completed", StatusCreated, StatusCompleted, true},
		{"Backward is rejected", StatusPaid, StatusConfirmed, false},
		{"Same status is rejected", StatusConfirmed, StatusConfirmed, false},
		{"Cannot leave completed", StatusCompleted, StatusPaid, false},
		{"Cannot leave cancelled", StatusCancelled, StatusConfirmed, false},
		{"Unknown target is rejected", StatusCreated, "shipped", false},
		{"Unknown source is rejected", "shipped", StatusPaid, false},
		{"Cancelled is not a forward target", StatusCreated, StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestIsCancellable(t *testing.T) {
	assert.True(t, IsCancellable(StatusCreated))
	assert.True(t, IsCancellable(StatusConfirmed))
	assert.False(t, IsCancellable(StatusWaitingMeetup))
	assert.False(t, IsCancellable(StatusMeetingDone))
	assert.False(t, IsCancellable(StatusPaid))
	assert.False(t, IsCancellable(StatusCompleted))
	assert.False(t, IsCancellable(StatusCancelled))
}

func TestReachesPaid(t *testing.T) {
	assert.False(t, ReachesPaid(StatusCreated))
	assert.False(t, ReachesPaid(StatusMeetingDone))
	assert.True(t, ReachesPaid(StatusPaid))
	assert.True(t, ReachesPaid(StatusCompleted))
	assert.False(t, ReachesPaid(StatusCancelled))
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusCompleted))
	assert.True(t, IsTerminalStatus(StatusCancelled))
	assert.False(t, IsTerminalStatus(StatusPaid))
}
