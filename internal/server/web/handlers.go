// Package web serves the login surface: the session gate, the login, logout,
// home and error pages, and the embedded static assets.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/nomina/internal/common"
	"github.com/dmitrijs2005/nomina/internal/logging"
	"github.com/dmitrijs2005/nomina/internal/server/config"
)

const errorPath = "/error"

const (
	invalidCredentialsMessage = "Invalid credentials. Check your email and password."
	loggedOutMessage          = "You have been logged out."
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

type Handlers struct {
	sessions     SessionManager
	csrf         AntiForgery
	log          logging.Logger
	tpl          *template.Template
	cookieName   string
	cookieSecure bool
	loginPath    string
	logoutPath   string
	landingPath  string
}

func NewHandlers(cfg *config.Config, sessions SessionManager, csrf AntiForgery, log logging.Logger) (*Handlers, error) {
	tpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Handlers{
		sessions:     sessions,
		csrf:         csrf,
		log:          log.With("module", "web"),
		tpl:          tpl,
		cookieName:   cfg.SessionCookieName,
		cookieSecure: cfg.CookieSecure,
		loginPath:    cfg.LoginPath,
		logoutPath:   cfg.LogoutPath,
		landingPath:  cfg.LandingPath,
	}, nil
}

// NewRouter wires the handlers behind the gate.
func NewRouter(cfg *config.Config, sessions SessionManager, csrf AntiForgery, log logging.Logger) (http.Handler, error) {
	h, err := NewHandlers(cfg, sessions, csrf, log)
	if err != nil {
		return nil, err
	}
	gate := NewGate(sessions, csrf, log, cfg.SessionCookieName, cfg.LoginPath, cfg.LogoutPath)
	return gate.Middleware(h.Routes()), nil
}

func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+h.loginPath, h.loginPage)
	mux.HandleFunc("POST "+h.loginPath, h.login)
	mux.HandleFunc("POST "+h.logoutPath, h.logout)
	mux.HandleFunc("GET "+errorPath, h.errorPage)

	landing := h.landingPath
	if landing == "/" {
		landing = "/{$}"
	}
	mux.HandleFunc("GET "+landing, h.home)

	static, _ := fs.Sub(staticFS, "static")
	files := http.FileServerFS(static)
	for _, p := range publicPrefixes {
		mux.Handle("GET "+p, files)
	}

	return mux
}

// ensureToken returns the cookie value the page's anti-forgery token binds
// to, minting an anonymous pre-session id when the client has none.
func (h *Handlers) ensureToken(w http.ResponseWriter, r *http.Request) (string, error) {
	state := StateFromContext(r.Context())
	if state.Token != "" {
		return state.Token, nil
	}

	token, err := common.MakeRandHexString(32)
	if err != nil {
		return "", err
	}
	state.Token = token
	http.SetCookie(w, h.cookie(token, 0))
	return token, nil
}

func (h *Handlers) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

type loginView struct {
	Action       string
	CSRFField    string
	CSRFToken    string
	UserField    string
	PassField    string
	ErrorMessage string
	InfoMessage  string
}

func (h *Handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	token, err := h.ensureToken(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	csrfToken, err := h.csrf.Issue(token)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	q := r.URL.Query()
	view := loginView{
		Action:    h.loginPath,
		CSRFField: common.CSRFFieldName,
		CSRFToken: csrfToken,
		UserField: common.UsernameFieldName,
		PassField: common.PasswordFieldName,
	}
	if q.Has(common.ErrorQueryFlag) {
		view.ErrorMessage = invalidCredentialsMessage
	}
	if q.Has(common.LogoutQueryFlag) {
		view.InfoMessage = loggedOutMessage
	}

	h.render(w, r, http.StatusOK, "login.html", view)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := StateFromContext(ctx)

	email := r.PostFormValue(common.UsernameFieldName)
	plain := r.PostFormValue(common.PasswordFieldName)

	token, session, err := h.sessions.Login(ctx, email, plain, state.Token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidCredentials) {
			http.Redirect(w, r, h.flagURL(common.ErrorQueryFlag), http.StatusFound)
			return
		}
		h.fail(w, r, err)
		return
	}

	state.Token = token
	state.Session = session
	http.SetCookie(w, h.cookie(token, int(h.sessions.MaxLifetime().Seconds())))
	http.Redirect(w, r, h.landingPath, http.StatusFound)
}

func (h *Handlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	state := StateFromContext(ctx)

	if err := h.sessions.Logout(ctx, state.Token); err != nil {
		h.fail(w, r, err)
		return
	}
	if state.Session != nil {
		logging.FromContext(ctx, h.log).Info(ctx, "logged out", "email", state.Session.Email)
	}

	state.Token = ""
	state.Session = nil
	http.SetCookie(w, h.cookie("", -1))
	http.Redirect(w, r, h.flagURL(common.LogoutQueryFlag), http.StatusFound)
}

type homeView struct {
	Email        string
	Authorities  []string
	LogoutAction string
	CSRFField    string
	CSRFToken    string
}

func (h *Handlers) home(w http.ResponseWriter, r *http.Request) {
	state := StateFromContext(r.Context())

	csrfToken, err := h.csrf.Issue(state.Token)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "home.html", homeView{
		Email:        state.Session.Email,
		Authorities:  state.Session.Authorities,
		LogoutAction: h.logoutPath,
		CSRFField:    common.CSRFFieldName,
		CSRFToken:    csrfToken,
	})
}

type errorView struct {
	Status  int
	Message string
}

func (h *Handlers) errorPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "error.html", errorView{Message: "Something went wrong."})
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	logging.FromContext(ctx, h.log).Error(ctx, "request failed", "error", err)
	h.render(w, r, http.StatusInternalServerError, "error.html", errorView{
		Status:  http.StatusInternalServerError,
		Message: http.StatusText(http.StatusInternalServerError),
	})
}

func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := h.tpl.ExecuteTemplate(w, name, data); err != nil {
		ctx := r.Context()
		logging.FromContext(ctx, h.log).Error(ctx, "template render failed", "template", name, "error", err)
	}
}

// flagURL is the login path with a valueless query flag, e.g. /auth/login?error.
func (h *Handlers) flagURL(flag string) string {
	u := url.URL{Path: h.loginPath, RawQuery: flag}
	return u.String()
}
