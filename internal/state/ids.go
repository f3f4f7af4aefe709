package state

import "github.com/google/uuid"

var sessionID = uuid.NewString()

// SessionID identifies this process to mirror viewers; it is sent with
// every sync frame so a viewer can tell a restart from a reconnect.
func SessionID() string { return sessionID }

// NewActionID returns a fresh identifier for a committed action.
func NewActionID() string { return uuid.NewString() }
