package tenancy

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tenantcore/pkg/cookie"
	"github.com/dmitrymomot/tenantcore/pkg/session"
	"github.com/dmitrymomot/tenantcore/pkg/structure"
	tenantpkg "github.com/dmitrymomot/tenantcore/pkg/tenancy"
)

// StructureScopeHook resolves the active structure after the tenant store is
// entered and persists the choice forward into the session and a long-lived
// cookie. An explicit structure_id query parameter always wins. A tenant
// with no structures yields no scope; handlers that need one get ErrNoScope
// at query time.
func (s *Service) StructureScopeHook() tenantpkg.EnterHook {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) (context.Context, error) {
		if explicit := r.URL.Query().Get(s.cfg.StructureQueryParam); explicit != "" {
			id, err := uuid.Parse(explicit)
			if err != nil {
				return ctx, structure.ErrStructureNotFound
			}
			if _, err := s.structures.GetByID(ctx, id); err != nil {
				return ctx, err
			}
			s.persistStructure(ctx, w, r, id)
			return structure.WithScope(ctx, structure.Scope{StructureID: id}), nil
		}

		sessionVal, cookieVal := s.structureCandidates(ctx, r)

		resolved, source, err := structure.Resolve(ctx, sessionVal, cookieVal, s.firstStructure)
		if err != nil {
			if errors.Is(err, structure.ErrNoStructures) {
				return ctx, nil
			}
			return ctx, err
		}

		id, err := uuid.Parse(resolved)
		if err != nil || !s.structureExists(ctx, id) {
			// Stale session or cookie value: fall back to the tenant's
			// first structure and overwrite the stored choice.
			first, ferr := s.firstStructure(ctx)
			if ferr != nil {
				if errors.Is(ferr, structure.ErrNoStructures) {
					return ctx, nil
				}
				return ctx, ferr
			}
			id = uuid.MustParse(first)
			source = structure.SourceFallback
		}

		if source != structure.SourceSession {
			s.persistStructure(ctx, w, r, id)
		}

		return structure.WithScope(ctx, structure.Scope{StructureID: id}), nil
	}
}

func (s *Service) structureCandidates(ctx context.Context, r *http.Request) (sessionVal, cookieVal string) {
	if loaded, ok := session.FromContext(ctx); ok {
		sessionVal, _ = loaded.GetString(structure.SessionKeyStructure)
	}
	cookieVal, _ = s.cookies.Get(r, structure.CookieNameStructure)
	return sessionVal, cookieVal
}

func (s *Service) firstStructure(ctx context.Context) (string, error) {
	first, err := s.structures.First(ctx)
	if err != nil {
		return "", err
	}
	return first.ID.String(), nil
}

func (s *Service) structureExists(ctx context.Context, id uuid.UUID) bool {
	_, err := s.structures.GetByID(ctx, id)
	return err == nil
}

// persistStructure records the structure choice in the session and refreshes
// the long-lived cookie so the scope survives both within and across
// sessions. Persistence failures are logged, never fatal.
func (s *Service) persistStructure(ctx context.Context, w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if loaded, ok := session.FromContext(ctx); ok {
		loaded.Set(structure.SessionKeyStructure, id.String())
		if err := s.sessions.Store().Update(ctx, loaded); err != nil {
			s.log.WarnContext(ctx, "failed to persist structure choice to session", "error", err)
		}
	}

	opts := []cookie.Option{
		cookie.WithMaxAge(int(structure.CookieMaxAge.Seconds())),
		cookie.WithPath("/"),
		cookie.WithHTTPOnly(true),
		cookie.WithSameSite(http.SameSiteLaxMode),
	}
	if s.cfg.SecureCookies {
		opts = append(opts, cookie.WithSecure(true))
	}
	if err := s.cookies.Set(w, structure.CookieNameStructure, id.String(), opts...); err != nil {
		s.log.WarnContext(ctx, "failed to persist structure choice to cookie", "error", err)
	}
}
