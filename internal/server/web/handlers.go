// Package web is the browser and JSON HTTP transport for session operations.
// Handlers translate SessionService errors into status codes and fixed
// public messages; nothing from an internal error reaches the response.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
)

// Public messages.
const (
	msgRegistered       = "User registered successfully"
	msgLoggedIn         = "Login successful"
	msgLoggedOut        = "Logged out"
	msgDeleted          = "Account deleted successfully"
	msgUserExists       = "User already exists"
	msgInvalidLogin     = "Invalid email or password"
	msgUnauthorized     = "Unauthorized"
	msgServerError      = "Server error"
	msgLoginServerError = "Server error - please try again later"
	msgMissingFields    = "All fields are required"
	msgBadBody          = "Invalid request body"
)

const maxBodyBytes = 1 << 20

type SessionManager interface {
	Register(ctx context.Context, username, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	DeleteAccount(ctx context.Context, identity *services.Identity) error
	RecordLogout()
}

type Handler struct {
	sessions SessionManager
	classify func(*http.Request) CallerKind
	tokenTTL time.Duration
	metrics  http.Handler
	logger   logging.Logger
}

// NewHandler builds the handler set. metrics may be nil, in which case
// /metrics is not served.
func NewHandler(sessions SessionManager, tokenTTL time.Duration, metrics http.Handler, logger logging.Logger) *Handler {
	return &Handler{
		sessions: sessions,
		classify: ClassifyCaller,
		tokenTTL: tokenTTL,
		metrics:  metrics,
		logger:   logger.With("module", "http"),
	}
}

// Routes returns the mux wrapped in the authentication middleware.
func (h *Handler) Routes(verifier TokenVerifier) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.home)
	mux.HandleFunc("GET /register", h.registerPage)
	mux.HandleFunc("GET /login", h.loginPage)

	mux.HandleFunc("POST /register", h.register)
	mux.HandleFunc("POST /login", h.login)
	mux.HandleFunc("POST /logout", h.logout)
	mux.HandleFunc("GET /logout", h.logout)
	mux.HandleFunc("POST /delete", h.deleteAccount)
	mux.HandleFunc("DELETE /account", h.deleteAccount)

	mux.HandleFunc("GET /healthz", h.healthz)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	return RequestID(Authenticate(verifier, h.logger)(mux))
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type response struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	User    *userView `json:"user,omitempty"`
	Token   string    `json:"token,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	kind := h.classify(r)

	in, err := decodeCredentials(w, r)
	if err != nil {
		h.fail(w, r, kind, http.StatusBadRequest, viewRegister, msgBadBody)
		return
	}
	if in.Username == "" || in.Email == "" || in.Password == "" {
		h.fail(w, r, kind, http.StatusBadRequest, viewRegister, msgMissingFields)
		return
	}
	if !validEmail(in.Email) {
		h.fail(w, r, kind, http.StatusBadRequest, viewRegister, msgBadBody)
		return
	}

	s, err := h.sessions.Register(r.Context(), in.Username, in.Email, in.Password)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			h.fail(w, r, kind, http.StatusBadRequest, viewRegister, msgUserExists)
			return
		}
		h.fail(w, r, kind, http.StatusInternalServerError, viewRegister, msgServerError)
		return
	}

	setSessionCookie(w, r, s.Token, h.tokenTTL)

	if kind == Programmatic {
		writeJSON(w, http.StatusCreated, response{
			Status:  "success",
			Message: msgRegistered,
			User:    &userView{Username: s.User.UserName, Email: s.User.Email},
			Token:   s.Token,
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	kind := h.classify(r)

	in, err := decodeCredentials(w, r)
	if err != nil {
		h.fail(w, r, kind, http.StatusBadRequest, viewLogin, msgBadBody)
		return
	}

	s, err := h.sessions.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			h.fail(w, r, kind, http.StatusUnauthorized, viewLogin, msgInvalidLogin)
			return
		}
		h.fail(w, r, kind, http.StatusInternalServerError, viewLogin, msgLoginServerError)
		return
	}

	setSessionCookie(w, r, s.Token, h.tokenTTL)

	if kind == Programmatic {
		writeJSON(w, http.StatusOK, response{Status: "success", Message: msgLoggedIn, Token: s.Token})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, r)
	h.sessions.RecordLogout()

	if h.classify(r) == Programmatic {
		writeJSON(w, http.StatusOK, response{Status: "success", Message: msgLoggedOut})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// deleteAccount answers failures in JSON for every caller kind.
func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	err := h.sessions.DeleteAccount(r.Context(), IdentityFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			writeJSON(w, http.StatusUnauthorized, response{Status: "error", Message: msgUnauthorized})
			return
		}
		writeJSON(w, http.StatusInternalServerError, response{Status: "error", Message: msgServerError})
		return
	}

	clearSessionCookie(w, r)

	if h.classify(r) == Programmatic {
		writeJSON(w, http.StatusOK, response{Status: "success", Message: msgDeleted})
		return
	}
	http.Redirect(w, r, "/register", http.StatusSeeOther)
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	renderView(w, r, http.StatusOK, viewHome, pageData{SignedIn: IdentityFromContext(r.Context()) != nil})
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	renderView(w, r, http.StatusOK, viewRegister, pageData{})
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	renderView(w, r, http.StatusOK, viewLogin, pageData{})
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, kind CallerKind, status int, view viewName, msg string) {
	if kind == Programmatic {
		writeJSON(w, status, response{Status: "error", Message: msg})
		return
	}
	renderView(w, r, status, view, pageData{Error: msg})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentials, error) {
	var in credentials
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if isJSON(r.Header.Get("Content-Type")) {
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			return credentials{}, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return credentials{}, err
		}
		in = credentials{
			Username: r.PostFormValue("username"),
			Email:    r.PostFormValue("email"),
			Password: r.PostFormValue("password"),
		}
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	return in, nil
}

// validEmail accepts a bare addr-spec only: no display name, no line breaks.
func validEmail(email string) bool {
	if strings.ContainsAny(email, "\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
