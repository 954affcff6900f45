package gitops

import "fmt"

// AuthError indicates the remote rejected our credentials.
type AuthError struct {
	Op  string
	URL string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("git %s: authentication failed for %s: %v", e.Op, e.URL, e.Err)
}
func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError indicates the repository or revision does not exist.
type NotFoundError struct {
	Op  string
	URL string
	Err error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("git %s: not found %s: %v", e.Op, e.URL, e.Err)
}
func (e *NotFoundError) Unwrap() error { return e.Err }

// NetworkTimeoutError indicates a network-level failure reaching the remote.
type NetworkTimeoutError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkTimeoutError) Error() string {
	return fmt.Sprintf("git %s: network timeout for %s: %v", e.Op, e.URL, e.Err)
}
func (e *NetworkTimeoutError) Unwrap() error { return e.Err }
