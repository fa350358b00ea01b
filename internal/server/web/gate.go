package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/dmitrijs2005/nomina/internal/logging"
	"github.com/dmitrijs2005/nomina/internal/server/models"
	"github.com/google/uuid"
)

// SessionManager is the part of services.SessionService the web layer needs.
type SessionManager interface {
	Login(ctx context.Context, email, plain, previousToken string) (string, *models.Session, error)
	Resolve(ctx context.Context, token string) (*models.Session, error)
	Logout(ctx context.Context, token string) error
	MaxLifetime() time.Duration
}

// AntiForgery validates state-changing requests against the session cookie.
type AntiForgery interface {
	Issue(sessionToken string) (string, error)
	ValidateRequest(r *http.Request, sessionToken string) error
}

// publicPrefixes are reachable without a session.
var publicPrefixes = []string{"/css/", "/js/", "/images/", "/webjars/"}

// Gate is the single decision point between ANONYMOUS and AUTHENTICATED.
// For every request it resolves the session cookie, rejects state-changing
// requests without a valid anti-forgery token, and redirects anonymous
// requests for protected paths to the login page.
type Gate struct {
	sessions   SessionManager
	csrf       AntiForgery
	log        logging.Logger
	cookieName string
	loginPath  string
	public     map[string]bool
}

func NewGate(sessions SessionManager, csrf AntiForgery, log logging.Logger, cookieName, loginPath, logoutPath string) *Gate {
	return &Gate{
		sessions:   sessions,
		csrf:       csrf,
		log:        log.With("module", "gate"),
		cookieName: cookieName,
		loginPath:  loginPath,
		public: map[string]bool{
			loginPath:  true,
			logoutPath: true,
			errorPath:  true,
		},
	}
}

func (g *Gate) isPublic(path string) bool {
	if g.public[path] {
		return true
	}
	for _, p := range publicPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(common.RequestIDHeaderKey)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderKey, requestID)

		log := g.log.With("request_id", requestID, "method", r.Method, "path", r.URL.Path)
		ctx := logging.NewContext(r.Context(), log)
		r = r.WithContext(ctx)

		state := &State{}
		if c, err := r.Cookie(g.cookieName); err == nil {
			state.Token = c.Value
		}

		if state.Token != "" {
			session, err := g.sessions.Resolve(ctx, state.Token)
			switch {
			case err == nil:
				state.Session = session
			case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrSessionExpired):
				log.Debug(ctx, "anonymous request", "reason", err)
			default:
				log.Error(ctx, "session resolve failed", "error", err)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
		}

		if err := g.csrf.ValidateRequest(r, state.Token); err != nil {
			log.Warn(ctx, "request rejected", "error", err)
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}

		r = r.WithContext(withState(ctx, state))

		if !state.Authenticated() && !g.isPublic(r.URL.Path) {
			http.Redirect(w, r, g.loginPath, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}
