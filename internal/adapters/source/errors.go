package source

import "errors"

var (
	// ErrQuery indicates the backing store rejected a read.
	ErrQuery = errors.New("source query failed")
	// ErrTransient marks failures worth retrying, such as dropped
	// connections. Wrap it so errors.Is can classify.
	ErrTransient = errors.New("transient source error")
	// ErrBadRow indicates a row that could not be translated, such as a
	// missing entity identifier or an unparseable knowledge date.
	ErrBadRow = errors.New("malformed source row")
	// ErrUnknownTable indicates a read against a table the source does
	// not hold.
	ErrUnknownTable = errors.New("unknown source table")
)
