// Package notify defines the scheduling client the timer flow talks to.
// The transport (web push, VAPID keys, the backend) lives outside this
// program; callers treat the client as opaque and fire-and-forget.
package notify

import (
	"context"
	"time"
)

// Scheduler schedules a reminder for a running timer and cancels it
// when the timer finishes or the task completes.
type Scheduler interface {
	Schedule(ctx context.Context, taskText string, fireAt time.Time) error
	Cancel(ctx context.Context) error
}

type nop struct{}

func (nop) Schedule(context.Context, string, time.Time) error { return nil }
func (nop) Cancel(context.Context) error                      { return nil }

// NewNop returns a scheduler that does nothing; used when no backend is
// configured.
func NewNop() Scheduler { return nop{} }
