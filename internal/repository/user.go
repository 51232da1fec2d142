package repository

import "context"

// UserRepository maintains the per-user template counter used for quota
// accounting. Users unknown to the table count as zero.
type UserRepository interface {
	// TemplateCount returns the recorded counter for userID.
	TemplateCount(ctx context.Context, userID string) (int, error)

	// SetTemplateCount overwrites the counter, creating the row if absent.
	// Used to reconcile the counter against the actual owned-template count.
	SetTemplateCount(ctx context.Context, userID string, count int) error

	// AdjustTemplateCount adds delta to the counter, creating the row if
	// absent and never letting the counter drop below zero.
	AdjustTemplateCount(ctx context.Context, userID string, delta int) error
}
