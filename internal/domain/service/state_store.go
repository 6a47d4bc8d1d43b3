package service

import "github.com/google/uuid"

// OAuthStateStore tracks outstanding authorization-flow state parameters.
// A state is single-use and short-lived; consuming it yields the user the
// flow was started for, which is how the callback ties the provider redirect
// back to a session.
type OAuthStateStore interface {
	// Issue creates a new unguessable state bound to the user.
	Issue(userID uuid.UUID) (string, error)

	// Consume redeems a state exactly once. Returns false for unknown,
	// expired, or already-consumed states.
	Consume(state string) (uuid.UUID, bool)
}
