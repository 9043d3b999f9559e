package domain

import "errors"

var (
	ErrParticipantNotFound = errors.New("participant not found")
	ErrStoreUnavailable    = errors.New("ranking store unavailable")
)
