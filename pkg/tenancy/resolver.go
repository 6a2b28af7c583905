package tenancy

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// SessionKeyTenant is the session key carrying the active tenant identifier.
const SessionKeyTenant = "current_tenant_id"

// Resolver extracts a tenant identifier from an HTTP request.
// Returns empty string if no tenant is found, error if extraction failed.
// Resolution is read-only: it never switches stores.
type Resolver func(r *http.Request) (string, error)

// NewRouteResolver extracts the tenant identifier from a chi route parameter,
// e.g. the {tenant} segment of /tenants/{tenant}/....
func NewRouteResolver(param string) Resolver {
	if param == "" {
		param = "tenant"
	}

	return func(r *http.Request) (string, error) {
		return strings.TrimSpace(chi.URLParam(r, param)), nil
	}
}

// SessionData is the minimal session surface the resolvers need.
type SessionData interface {
	GetString(key string) (string, bool)
}

// NewSessionResolver extracts the tenant identifier from the session already
// loaded into the request, for requests within a contextualized browsing
// session. A missing or broken session resolves to "no tenant".
func NewSessionResolver(getSession func(r *http.Request) (SessionData, error)) Resolver {
	return func(r *http.Request) (string, error) {
		if getSession == nil {
			return "", errors.New("session resolver: getSession not configured")
		}

		session, err := getSession(r)
		if err != nil || session == nil {
			return "", nil
		}

		value, _ := session.GetString(SessionKeyTenant)
		return value, nil
	}
}

// RawSessionResolver resolves the tenant for requests served before the
// session middleware has run, such as static asset delivery. It decrypts the
// session cookie itself, fetches the serialized session payload straight from
// the session backend, and extracts the tenant key from it.
//
// Every step degrades gracefully: decryption failure, backend unavailability,
// or a malformed payload all resolve to "no tenant" rather than an error, so
// this path can never abort or block the request pipeline.
type RawSessionResolver struct {
	// GetToken decrypts the session cookie and returns the session token.
	GetToken func(r *http.Request) (string, error)

	// FetchSession loads the serialized session payload from the backend.
	FetchSession func(ctx context.Context, token string) (SessionData, error)
}

// Resolve implements the raw fallback path.
func (rr *RawSessionResolver) Resolve(r *http.Request) (string, error) {
	if rr.GetToken == nil || rr.FetchSession == nil {
		return "", nil
	}

	token, err := rr.GetToken(r)
	if err != nil || token == "" {
		return "", nil
	}

	session, err := rr.FetchSession(r.Context(), token)
	if err != nil || session == nil {
		return "", nil
	}

	value, _ := session.GetString(SessionKeyTenant)
	return value, nil
}

// NewCompositeResolver tries each resolver in order, returning the first
// non-empty identifier. Resolver errors are collected but a later resolver
// can still succeed; if all come up empty the request proceeds tenantless.
func NewCompositeResolver(resolvers ...Resolver) Resolver {
	return func(r *http.Request) (string, error) {
		var errs []error

		for _, resolver := range resolvers {
			id, err := resolver(r)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if id != "" {
				return id, nil
			}
		}

		if len(errs) > 0 {
			return "", errors.Join(errs...)
		}

		return "", nil
	}
}
