package hooks

import "fmt"

// TapError is the error a tapped handler passed to its done callback.
type TapError struct {
	Hook string
	Tap  string
	Err  error
}

func (e *TapError) Error() string {
	return fmt.Sprintf("%s hook %s failed: %v", e.Hook, e.Tap, e.Err)
}

func (e *TapError) Unwrap() error {
	return e.Err
}
