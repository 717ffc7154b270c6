package domain

import "errors"

// Error kinds surfaced by the core. Wrap them with context via fmt.Errorf("%w: ...").
var (
	ErrInvalidRequest  = errors.New("invalid request")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnavailable     = errors.New("unavailable")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidRequest, "invalid_request"},
	{ErrNotFound, "not_found"},
	{ErrForbidden, "forbidden"},
	{ErrInvalidState, "invalid_state"},
	{ErrUnauthenticated, "unauthenticated"},
	{ErrUnavailable, "unavailable"},
}

// KindOf returns a stable name for the error kind, or "internal".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}
