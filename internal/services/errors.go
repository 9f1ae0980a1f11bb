package services

import "errors"

// Precondition failures returned to callers for translation into user-facing
// responses. Background reconciliation failures are logged, never returned.
var (
	ErrNotFound            = errors.New("record not found")
	ErrBelowMinimum        = errors.New("available balance below minimum redeemable amount")
	ErrDuplicateRedemption = errors.New("a redemption already exists for this earning")
	ErrCooldown            = errors.New("redemption requested before cooldown elapsed")
	ErrSelfReferral        = errors.New("a partner cannot refer themselves")

	// ErrReconciliationMismatch marks a credited redemption whose backing
	// payout earning is missing or no longer paid. Handled internally by
	// flipping the redemption to failed.
	ErrReconciliationMismatch = errors.New("credited redemption has no paid backing earning")
)
