package devbackend

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/tendant/socialconnect/pkg/errors"
)

// SessionCookieName is read by jwtauth.TokenFromCookie
const SessionCookieName = "jwt"

const defaultTokenTTL = 24 * time.Hour

// AccountResponse is the JSON view of an Account
type AccountResponse struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email,omitempty"`
	Game           string    `json:"game,omitempty"`
	LinkedAccounts []string  `json:"linkedAccounts"`
	CreatedAt      time.Time `json:"createdAt"`
	Created        bool      `json:"created,omitempty"`
}

// envelope wraps every response body as {data: ...}; failures also carry result "fail"
type envelope struct {
	Result string `json:"result,omitempty"`
	Data   any    `json:"data"`
}

type registerRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	Email    string `validate:"required,email"`
	Game     string
}

type loginRequest struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	Game     string
	Ref      string
}

type connectRequest struct {
	Type    string
	ID      string `validate:"required"`
	FullRes string
	Game    string
	Ref     string
}

// Handler serves the backend account API
type Handler struct {
	svc          *Service
	jwtAuth      *jwtauth.JWTAuth
	secret       []byte
	tokenTTL     time.Duration
	cookieSecure bool
	validate     *validator.Validate
	logger       *slog.Logger
}

type HandlerOption func(*Handler)

func WithTokenTTL(ttl time.Duration) HandlerOption {
	return func(h *Handler) {
		if ttl > 0 {
			h.tokenTTL = ttl
		}
	}
}

func WithSecureCookie(secure bool) HandlerOption {
	return func(h *Handler) {
		h.cookieSecure = secure
	}
}

func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates a Handler signing HS256 session tokens with secret
func NewHandler(svc *Service, secret []byte, opts ...HandlerOption) *Handler {
	h := &Handler{
		svc:      svc,
		jwtAuth:  jwtauth.New("HS256", secret, nil),
		secret:   secret,
		tokenTTL: defaultTokenTTL,
		validate: validator.New(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the API router. Mount it under the prefix the client's server URL points to.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
	r.Post("/auth/logout", h.logout)

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.jwtAuth))
		r.Post("/auth/{provider}/connect", h.connect)
	})

	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(h.jwtAuth))
		r.Use(h.authenticator)
		r.Get("/users/me", h.me)
		r.Post("/users/me", h.me)
	})

	return r
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, errors.InvalidInput("body", "could not parse form"))
		return
	}
	req := registerRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		Email:    r.PostForm.Get("email"),
		Game:     r.PostForm.Get("game"),
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, errors.Wrap(err, errors.ErrCodeInvalidInput, "Missing required parameters"))
		return
	}

	account, err := h.svc.Register(r.Context(), req.Username, req.Password, req.Email, req.Game)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, envelope{Data: toResponse(account, false)})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, errors.InvalidInput("body", "could not parse form"))
		return
	}
	req := loginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
		Game:     r.PostForm.Get("game"),
		Ref:      r.PostForm.Get("ref"),
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, errors.Wrap(err, errors.ErrCodeInvalidInput, "Missing required parameters"))
		return
	}

	account, err := h.svc.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.startSession(w, account.ID); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("login", "account_id", account.ID, "game", req.Game, "ref", req.Ref)
	render.JSON(w, r, envelope{Data: toResponse(account, false)})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
	})
	render.JSON(w, r, envelope{Data: map[string]any{"message": "Logged out"}})
}

func (h *Handler) connect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.fail(w, r, errors.InvalidInput("body", "could not parse form"))
		return
	}
	req := connectRequest{
		Type:    r.PostForm.Get("type"),
		ID:      r.PostForm.Get("id"),
		FullRes: r.PostForm.Get("fullRes"),
		Game:    r.PostForm.Get("game"),
		Ref:     r.PostForm.Get("ref"),
	}
	if req.Type == "" {
		req.Type = chi.URLParam(r, "provider")
	}
	if err := h.validate.Struct(req); err != nil {
		h.fail(w, r, errors.Wrap(err, errors.ErrCodeInvalidInput, "Missing required parameters"))
		return
	}

	var profile map[string]any
	if req.FullRes != "" {
		if err := json.Unmarshal([]byte(req.FullRes), &profile); err != nil {
			h.fail(w, r, errors.InvalidInput("fullRes", "not a JSON object"))
			return
		}
	}

	current := h.sessionAccount(r)
	account, created, err := h.svc.Connect(r.Context(), current, req.Type, req.ID, profile)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.startSession(w, account.ID); err != nil {
		h.fail(w, r, err)
		return
	}

	h.logger.Info("external login", "account_id", account.ID, "type", req.Type, "created", created, "game", req.Game)
	render.JSON(w, r, envelope{Data: toResponse(account, created)})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	id := h.sessionAccount(r)
	account, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			err = errors.Unauthorized("Not logged in")
		}
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, envelope{Data: toResponse(account, false)})
}

// authenticator rejects requests without a verified session token
func (h *Handler) authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			h.fail(w, r, errors.Unauthorized("Not logged in"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// sessionAccount returns the account id of a verified session token, or uuid.Nil
func (h *Handler) sessionAccount(r *http.Request) uuid.UUID {
	token, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		return uuid.Nil
	}
	sub, _ := claims["sub"].(string)
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (h *Handler) startSession(w http.ResponseWriter, id uuid.UUID) error {
	now := time.Now()
	expires := now.Add(h.tokenTTL)
	claims := jwt.RegisteredClaims{
		Subject:   id.String(),
		Issuer:    "socialconnect-devbackend",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to sign session token")
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Path:     "/",
		Value:    signed,
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := errors.MapErrorCodeToHTTPStatus(code)

	msg := "Internal server error"
	var e *errors.Error
	if status < http.StatusInternalServerError && errors.As(err, &e) {
		msg = e.Message
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}

	render.Status(r, status)
	render.JSON(w, r, envelope{Result: "fail", Data: map[string]any{"message": msg, "code": code}})
}

func toResponse(account Account, created bool) AccountResponse {
	var resp AccountResponse
	_ = copier.Copy(&resp, &account)
	resp.LinkedAccounts = make([]string, 0, len(account.Links))
	for _, link := range account.Links {
		resp.LinkedAccounts = append(resp.LinkedAccounts, link.Type)
	}
	resp.Created = created
	return resp
}
