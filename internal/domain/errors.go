package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("party is not a participant of this dispute")
	ErrAlreadyAccepted    = errors.New("proposal already accepted by this party")
	ErrInvalidInput       = errors.New("invalid input")
	ErrMalformedProposal  = errors.New("malformed proposal")
	ErrGenerationTimeout  = errors.New("proposal generation timed out")
	ErrGenerationFailed   = errors.New("proposal generation failed")
	ErrNotYourTurn        = errors.New("party is not expected to react now")
	ErrNoProposal         = errors.New("dispute has no proposal yet")
	ErrSettled            = errors.New("dispute is already settled")
	ErrNotEligible        = errors.New("dispute is not eligible for proposal generation")
	ErrInvitationConsumed = errors.New("invitation already consumed")
)
