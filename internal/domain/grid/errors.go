package grid

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnknownClassifier = errors.New("unknown classifier")
	ErrEmptyGrid         = errors.New("empty hyperparameter grid")
)
