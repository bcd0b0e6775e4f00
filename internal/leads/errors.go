package leads

import "errors"

var (
	// ErrUnparseable marks an extraction response that is not the strict
	// three-field JSON object. Recoverable: the draft is discarded and the
	// pipeline continues.
	ErrUnparseable = errors.New("leads: extraction response is not valid JSON")

	// ErrIncompleteDraft is returned when a commit is attempted before all
	// three extracted fields are present.
	ErrIncompleteDraft = errors.New("leads: draft is missing required fields")

	// ErrClientNotFound is returned when the phone-to-client lookup does
	// not resolve. The order is not created and the draft is discarded.
	ErrClientNotFound = errors.New("leads: no client for phone number")

	// ErrMissingAPIKey short-circuits extraction when the completion
	// credential is absent.
	ErrMissingAPIKey = errors.New("leads: completion API key not configured")
)
