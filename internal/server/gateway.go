package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/felixgeelhaar/stayadmin/internal/errors"
	"github.com/felixgeelhaar/stayadmin/internal/log"
	"github.com/felixgeelhaar/stayadmin/internal/platform"
	"github.com/felixgeelhaar/stayadmin/internal/profile"
	"github.com/felixgeelhaar/stayadmin/internal/route"
	"github.com/felixgeelhaar/stayadmin/internal/session"
)

const maxRequestBody = 1 << 20

// Sessions is the session manager as seen by the gateway.
type Sessions interface {
	Snapshot() session.Snapshot
	Status() session.Status
	LogIn(ctx context.Context, req session.LoginRequest) error
	LogOut(ctx context.Context)
}

// Authenticator performs the login call.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*platform.LoginResult, error)
}

// API sends protected calls with the session's token.
type API interface {
	Do(ctx context.Context, method, path string, body any) (*platform.Response, error)
}

// GatewayConfig wires the gateway's collaborators.
type GatewayConfig struct {
	Gate     *route.Gate
	Sessions Sessions
	Auth     Authenticator
	API      API
	Logger   *log.Logger
}

type gateway struct {
	gate     *route.Gate
	sessions Sessions
	auth     Authenticator
	api      API
	logger   *log.Logger
}

// NewGateway returns the handler for the console routes, the session
// endpoints and the /api proxy.
func NewGateway(cfg GatewayConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = log.Discard()
	}
	g := &gateway{
		gate:     cfg.Gate,
		sessions: cfg.Sessions,
		auth:     cfg.Auth,
		api:      cfg.API,
		logger:   cfg.Logger.Component("gateway"),
	}

	public := chi.NewRouter()
	public.Get(g.gate.Table().Login, g.handleLoginPage)
	public.Post(g.gate.Table().Login, g.handleLogin)
	public.NotFound(g.handleLoginPage)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(g.accessLog)
	r.Use(g.sameOrigin)

	r.Get("/session", g.handleSession)
	r.Post("/admin/logout", g.handleLogout)
	r.Handle("/api/*", http.HandlerFunc(g.handleProxy))
	r.Handle("/*", g.gate.Handler(g.sessions, http.HandlerFunc(g.handlePage), public))
	return r
}

func (g *gateway) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		g.logger.DebugContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

type sessionView struct {
	Status  string           `json:"status"`
	IsAdmin bool             `json:"isAdmin"`
	Role    string           `json:"role,omitempty"`
	Profile *profile.Profile `json:"profile,omitempty"`
	Since   time.Time        `json:"since"`
}

func viewOf(s session.Snapshot) sessionView {
	return sessionView{
		Status:  s.Status.String(),
		IsAdmin: s.IsAdmin,
		Role:    s.Role,
		Profile: s.Profile,
		Since:   s.Since,
	}
}

func (g *gateway) handleSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, viewOf(g.sessions.Snapshot()))
}

// handlePage serves the shell of a protected page. Rendering is left to
// the console; the shell names the page and the session.
func (g *gateway) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{
		"page":    r.URL.Path,
		"tree":    route.TreeProtected.String(),
		"session": viewOf(g.sessions.Snapshot()),
	})
}

func (g *gateway) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, map[string]any{
		"page":   g.gate.Table().Login,
		"tree":   route.TreePublic.String(),
		"fields": []string{"email", "password"},
	})
}

type loginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (g *gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeAppError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeAuthValidation, "unreadable login form", err))
			return
		}
		form.Email, form.Password = r.PostForm.Get("email"), r.PostForm.Get("password")
	} else if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&form); err != nil {
		writeAppError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeAuthValidation, "login body must be JSON with email and password", err))
		return
	}

	res, err := g.auth.Login(r.Context(), strings.TrimSpace(form.Email), form.Password)
	if err != nil {
		writeAppError(w, loginStatus(err), err)
		return
	}

	req := session.LoginRequest{Token: res.Token, Role: res.Role}
	if len(res.Profile) > 0 {
		p, perr := profile.Parse(res.Profile)
		if perr != nil {
			g.logger.WarnContext(r.Context(), "inline profile unusable; resolving instead", "error", perr)
		} else {
			req.Profile = p
		}
	}
	if err := g.sessions.LogIn(r.Context(), req); err != nil {
		writeAppError(w, loginStatus(err), err)
		return
	}

	snap := g.sessions.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"redirect": g.gate.Table().Home,
		"session":  viewOf(snap),
	})
}

func (g *gateway) handleLogout(w http.ResponseWriter, r *http.Request) {
	g.sessions.LogOut(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"redirect": g.gate.Table().Login,
	})
}

// handleProxy forwards /api/* with the session's token. The remote status
// and body are passed through unchanged; a refused token resets the session
// inside the helper and answers 401 here.
func (g *gateway) handleProxy(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeAppError(w, http.StatusBadRequest, errors.Wrap(errors.ErrCodeAPIMalformed, "unreadable request body", err))
		return
	}
	var body any
	if len(raw) > 0 {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			writeAppError(w, http.StatusUnsupportedMediaType, errors.New(errors.ErrCodeAPIMalformed, "request body must be sent as application/json"))
			return
		}
		if !json.Valid(raw) {
			writeAppError(w, http.StatusBadRequest, errors.New(errors.ErrCodeAPIMalformed, "request body is not JSON"))
			return
		}
		body = json.RawMessage(raw)
	}

	path := r.URL.Path
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	resp, err := g.api.Do(r.Context(), r.Method, path, body)
	if err != nil {
		status := http.StatusBadGateway
		switch platform.KindOf(err) {
		case platform.KindUnauthorized:
			status = http.StatusUnauthorized
		case platform.KindRequest:
			status = http.StatusBadRequest
		}
		writeJSON(w, status, map[string]string{
			"status":  "error",
			"kind":    platform.KindOf(err).String(),
			"message": err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

func loginStatus(err error) int {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	switch appErr.Code {
	case errors.ErrCodeAuthValidation:
		return http.StatusBadRequest
	case errors.ErrCodeAuthInvalidCredentials, errors.ErrCodeAuthProfileRejected:
		return http.StatusUnauthorized
	case errors.ErrCodeAPIUnreachable, errors.ErrCodeAPIMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeAppError(w http.ResponseWriter, status int, err error) {
	body := map[string]any{"status": "error", "message": err.Error()}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		body["code"] = string(appErr.Code)
		body["message"] = appErr.Message
		if len(appErr.Suggestions) > 0 {
			body["suggestions"] = appErr.Suggestions
		}
	}
	writeJSON(w, status, body)
}
