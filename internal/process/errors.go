package process

import "errors"

// Standard errors returned by the process supervisor.
var (
	// ErrDisabled indicates the supervisor hit its restart ceiling and
	// will no longer spawn the engine.
	ErrDisabled = errors.New("engine disabled after too many restarts")

	// ErrNoBinary indicates no installed engine version could be found.
	ErrNoBinary = errors.New("no engine binary installed")
)
