package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// ForOwner returns a component logger that also carries the owner id.
func ForOwner(name, ownerID string) zerolog.Logger {
	return log.With().Str("cmp", name).Str("owner_id", ownerID).Logger()
}
