package receipt

import (
	"time"

	"stockroom/internal/core/types"
	"stockroom/internal/domain/receiving"
)

// Line id strategies.
const (
	LineIDUUID     = "uuid"
	LineIDSequence = "sequence"

	lineSequencePrefix = "L"
)

// Config configures the receipt service.
type Config struct {
	Policy         receiving.Policy
	LineIDStrategy string

	// IdleTTL drops a loaded session from memory after this long without a
	// request. Use the store's TTL. Zero keeps sessions until cancel or submit.
	IdleTTL time.Duration

	// SharedStore reloads the session from the store at the start of every
	// operation. Set it when several instances serve the same store.
	SharedStore bool

	// Today and Now override the clock, used by tests.
	Today func() types.Date
	Now   func() time.Time
}
