package adapter

import "fmt"

// TransportError reports a failed fetch: a network error or an HTTP status
// of 400 or above.
type TransportError struct {
	Provider   string
	URL        string
	StatusCode int // zero for network errors
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: fetching %s: status %d: %v", e.Provider, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: fetching %s: %v", e.Provider, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError reports a payload that does not match the provider's
// shape. Index is the offending element's position in the list, or -1 when
// the payload as a whole is rejected.
type ValidationError struct {
	Provider string
	Index    int
	Path     string
	Reason   string
	Payload  string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: invalid payload at %q: %s", e.Provider, e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: invalid element %d at %q: %s", e.Provider, e.Index, e.Path, e.Reason)
}
