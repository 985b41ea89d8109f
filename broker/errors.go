package broker

import (
	"errors"
	"fmt"
)

// ErrConnectionLost is fatal for the engine loop.
var ErrConnectionLost = errors.New("broker: connection lost")

// AmbiguousAssetError means a watch-list entry did not resolve to exactly
// one contract. Fatal at startup.
type AmbiguousAssetError struct {
	Code    string
	Matches int
}

func (e *AmbiguousAssetError) Error() string {
	return fmt.Sprintf("broker: asset %s resolved to %d contracts", e.Code, e.Matches)
}

// StaleContractError means a strategy leg's contract no longer qualifies.
// The affected strategy is skipped for the iteration; the loop continues.
type StaleContractError struct {
	LegID string
}

func (e *StaleContractError) Error() string {
	return fmt.Sprintf("broker: stale contract for leg %s", e.LegID)
}

// TransientError wraps a single failed RPC. The loop logs it and relies on
// the next iteration as the retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("broker: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err can be retried on the next loop pass.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
