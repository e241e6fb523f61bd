package model

import "errors"

// Domain errors shared by the claim and chat services.
var (
	ErrNotFound       = errors.New("item not found")
	ErrUnauthorized   = errors.New("not authorized for this item")
	ErrSelfClaim      = errors.New("cannot claim your own item")
	ErrAlreadyClaimed = errors.New("item already claimed")
	ErrNoClaimFound   = errors.New("no valid claim request found")
	ErrNoClaimant     = errors.New("item has no claimant")
	ErrEmptyMessage   = errors.New("message required")

	// ErrPersistence wraps storage failures so callers can tell them
	// apart from domain errors.
	ErrPersistence = errors.New("persistence failure")
)
