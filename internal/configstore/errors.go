package configstore

import "fmt"

// ParseError reports an unreadable or malformed configuration file. It is
// fatal: a reconciliation aborts before any write when the tree cannot be
// indexed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
