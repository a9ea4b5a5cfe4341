package matrix

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrHash    = errors.New("content hash failed")
	ErrNoDates = errors.New("matrix definition has no as-of dates")
	ErrWrite   = errors.New("matrix write failed")
	ErrRead    = errors.New("label read failed")
)
