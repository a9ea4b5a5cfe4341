package split

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidBounds = errors.New("invalid temporal bounds")
	ErrLeakage       = errors.New("label leakage")
)
