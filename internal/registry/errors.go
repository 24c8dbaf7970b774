package registry

import "errors"

// Typed registry failures. Callers branch with errors.Is; the HTTP layer
// translates each kind into a distinct response so operators can tell
// corruption (ErrArtifactMissing) apart from plain absence (ErrNotFound).
var (
	// ErrNotFound indicates the catalog has no record for the given model id.
	ErrNotFound = errors.New("registry: model not found")

	// ErrDuplicateVersion indicates a (name, version) pair already exists.
	ErrDuplicateVersion = errors.New("registry: duplicate model version")

	// ErrArtifactMissing indicates the catalog entry exists but its backing
	// blob is absent or cannot be deserialized.
	ErrArtifactMissing = errors.New("registry: artifact missing or unreadable")

	// ErrNoModelFound indicates a selection query had no eligible active candidate.
	ErrNoModelFound = errors.New("registry: no eligible model")

	// ErrValidation indicates malformed registration input.
	ErrValidation = errors.New("registry: invalid input")
)
