package engine

import "errors"

// Domain errors surfaced by the engine. Uniqueness and not-found failures
// from the match store propagate unchanged (matchstore.ErrAlreadyMatched,
// matchstore.ErrMatchNotFound), as does poster.ErrUnbalancedEntry.
var (
	// ErrInvalidReference indicates the transaction or account does not
	// resolve. Caller error; not retried.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidTaxTreatment indicates a tax treatment outside the closed
	// enum was submitted.
	ErrInvalidTaxTreatment = errors.New("invalid tax treatment")

	// ErrPostingFailed indicates the journal entry could not be posted.
	// The match created for it has already been rolled back.
	ErrPostingFailed = errors.New("journal posting failed")

	// ErrRestartFailed indicates a restart failed midway and was rolled
	// back; the account/period state is unchanged from before the call.
	ErrRestartFailed = errors.New("restart failed")
)
