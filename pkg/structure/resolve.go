package structure

import "context"

// Source tells where the structure scope came from, which decides what gets
// persisted back (see the middleware in svc/tenancy).
type Source int

const (
	SourceNone Source = iota
	SourceSession
	SourceCookie
	SourceFallback
)

// Resolve decides the current structure, evaluating the chain
// session -> cookie -> fallback query. It is a pure function over its inputs
// plus the fallback closure; persisting the chosen value back into session
// and cookie is deliberately left to the caller.
//
// The fallback runs only when both session and cookie are empty; its error
// (typically ErrNoStructures) propagates unchanged.
func Resolve(ctx context.Context, sessionVal, cookieVal string, fallback func(ctx context.Context) (string, error)) (string, Source, error) {
	if sessionVal != "" {
		return sessionVal, SourceSession, nil
	}

	if cookieVal != "" {
		return cookieVal, SourceCookie, nil
	}

	if fallback == nil {
		return "", SourceNone, ErrNoStructures
	}

	value, err := fallback(ctx)
	if err != nil {
		return "", SourceNone, err
	}

	return value, SourceFallback, nil
}
