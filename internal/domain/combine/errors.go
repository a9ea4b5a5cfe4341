package combine

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownTable    = errors.New("unknown feature table")
	ErrUnknownStrategy = errors.New("unknown combination strategy")
)
