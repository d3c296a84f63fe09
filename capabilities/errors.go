package capabilities

import "fmt"

// ErrorKind distinguishes the two ways discovery can fail.
type ErrorKind int

// Discovery error kinds.
const (
	ErrNetwork ErrorKind = iota + 1
	ErrParse
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNetwork:
		return "network"
	case ErrParse:
		return "parse"
	default:
		return "unknown"
	}
}

// DiscoveryError is returned by Client.Discover. Callers that only care
// whether discovery worked can treat it as an opaque error; the Kind is there
// for reporting.
type DiscoveryError struct {
	Kind ErrorKind
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("capabilities discovery failed (%s): %v", e.Kind, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

func networkError(err error) error { return &DiscoveryError{Kind: ErrNetwork, Err: err} }

func parseError(err error) error { return &DiscoveryError{Kind: ErrParse, Err: err} }
