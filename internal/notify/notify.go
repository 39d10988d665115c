// Package notify delivers short moderation notices to the staff.
package notify

import "context"

// Notifier - send one text notice to the staff.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Nop drops every notice. Used when no channel is configured.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }
