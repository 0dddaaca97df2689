package debate

import (
	"errors"
	"fmt"
)

// Error taxonomy. All pipeline errors wrap exactly one of these sentinels so
// adapters can map them with errors.Is.
var (
	// ErrConfiguration reports a missing credential or misconfigured engine.
	ErrConfiguration = errors.New("configuration error")

	// ErrInput reports invalid caller input, e.g. no non-empty documents.
	ErrInput = errors.New("input error")

	// ErrRetrieval reports a chunking or similarity search failure.
	ErrRetrieval = errors.New("retrieval error")

	// ErrCompletion reports a failure from the completion service.
	ErrCompletion = errors.New("completion error")
)

func inputErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInput, fmt.Sprintf(format, args...))
}
