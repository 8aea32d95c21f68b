package internal

import "errors"

var (
	// ErrSourceUnavailable marks a theater page that could not be fetched
	// or rendered (network, timeout, block). Recovered per theater: the
	// orchestrator logs it and tries the fallback source.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrParseMismatch marks structured data that was expected but absent
	// or malformed. Strategies fall through to the next tactic on it.
	ErrParseMismatch = errors.New("parse mismatch")

	// ErrMissingCredential is returned before any extraction when a
	// required credential is absent and no override flag was supplied.
	ErrMissingCredential = errors.New("missing credential")
)
