package account

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/maps"

	"github.com/tendant/socialconnect/pkg/capability"
	"github.com/tendant/socialconnect/pkg/config"
	"github.com/tendant/socialconnect/pkg/errors"
	"github.com/tendant/socialconnect/pkg/provider"
)

// Name is the lifecycle name of the account service
const Name = "account"

const (
	defaultServerURL = "http://api.gamefroot.com/v1/"
	defaultTimeout   = 30 * time.Second
)

// Reasons reported through Result.Reason
const (
	ReasonMissingParameters = "Missing required parameters"
	ReasonInvalidParameters = "Invalid parameters"
	ReasonTimeout           = "request has timed out."
	ReasonAborted           = "request was aborted."
	ReasonNetwork           = "request encountered an error."
	ReasonFallback          = "Could not communicate with the server"
)

// Endpoints of the backend account API, relative to the server URL
const (
	EndpointRegister = "auth/register"
	EndpointLogin    = "auth/login"
	EndpointLogout   = "auth/logout"
	EndpointMe       = "users/me"
	endpointConnect  = "auth/%s/connect"
)

// ConnectEndpoint returns the link endpoint for a provider
func ConnectEndpoint(providerName string) string {
	return fmt.Sprintf(endpointConnect, url.PathEscape(providerName))
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Result is delivered to every Callback
type Result struct {
	OK bool
	// Data is the response body, unwrapped from its {data: ...} envelope
	Data map[string]any
	// Reason is a human-readable failure message
	Reason string
	// Err is a coded error from pkg/errors when OK is false
	Err error
}

// Callback receives the outcome of an asynchronous request
type Callback func(Result)

// RegisterParams are the arguments of Register
type RegisterParams struct {
	Username       string `validate:"required"`
	Password       string `validate:"required"`
	Email          string `validate:"required,email"`
	PasswordRepeat string `validate:"omitempty,eqfield=Password"`
	Callback       Callback
}

// LoginParams are the arguments of Login
type LoginParams struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
	Callback Callback
}

// LinkParams are the arguments of LinkExternalAccount
type LinkParams struct {
	// Provider names the link endpoint, e.g. "facebook"
	Provider string `validate:"required"`
	// Type is the account type sent to the backend. Defaults to Provider.
	Type     string
	Profile  provider.Profile `validate:"required"`
	Callback Callback
}

// Service is the client of the backend account API.
// At most one request is in flight; calls made while one is outstanding return false.
type Service struct {
	lc *capability.Lifecycle[struct{}, LoginParams, struct{}]

	client    Doer
	baseCtx   context.Context
	serverURL string
	timeout   time.Duration
	gameName  string
	ref       string
	logger    *slog.Logger
	validate  *validator.Validate

	mu          sync.Mutex
	ready       bool
	accountInfo map[string]any
}

// Option configures a Service
type Option func(*Service)

// WithHTTPClient sets the transport
func WithHTTPClient(client Doer) Option {
	return func(s *Service) {
		if client != nil {
			s.client = client
		}
	}
}

// WithServerURL overrides the configured server URL
func WithServerURL(serverURL string) Option {
	return func(s *Service) {
		if serverURL != "" {
			s.serverURL = serverURL
		}
	}
}

// WithTimeout overrides the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithBaseContext sets the context requests derive from. Cancelling it aborts outstanding requests.
func WithBaseContext(ctx context.Context) Option {
	return func(s *Service) {
		if ctx != nil {
			s.baseCtx = ctx
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates an account service from configuration
func NewService(cfg config.AccountConfig, opts ...Option) *Service {
	s := &Service{
		baseCtx:   context.Background(),
		serverURL: cfg.ServerURL,
		timeout:   cfg.Timeout,
		gameName:  cfg.GameName,
		ref:       cfg.Ref,
		logger:    slog.Default(),
		validate:  validator.New(),
		ready:     true,
	}
	if s.serverURL == "" {
		s.serverURL = defaultServerURL
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	for _, opt := range opts {
		opt(s)
	}
	if !strings.HasSuffix(s.serverURL, "/") {
		s.serverURL += "/"
	}
	if s.client == nil {
		jar, _ := cookiejar.New(nil)
		s.client = &http.Client{Jar: jar}
	}

	s.lc = capability.New(Name,
		capability.Capabilities{SupportsLogin: true},
		capability.Hooks[struct{}, LoginParams, struct{}]{Login: s.login},
		capability.WithLogger(s.logger),
	)
	return s
}

func (s *Service) Name() string { return Name }

// Ready reports whether a new request can be dispatched
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

// Initialized is always false; the account service needs no initialization
func (s *Service) Initialized() bool { return s.lc.Initialized() }

// LoggedIn reports whether account information is held
func (s *Service) LoggedIn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accountInfo != nil
}

// AccountInfo returns a copy of the current account information, or nil
func (s *Service) AccountInfo() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accountInfo == nil {
		return nil
	}
	return maps.Clone(s.accountInfo)
}

func (s *Service) setAccount(info map[string]any) {
	s.mu.Lock()
	s.accountInfo = maps.Clone(info)
	if s.accountInfo == nil {
		s.accountInfo = map[string]any{}
	}
	s.mu.Unlock()
}

func (s *Service) clearAccount() {
	s.mu.Lock()
	s.accountInfo = nil
	s.mu.Unlock()
}

// Register creates a backend account. It does not log the user in.
func (s *Service) Register(p RegisterParams) bool {
	if !s.hasCallback(p.Callback) {
		return false
	}
	if !s.check(&p, p.Callback) {
		return false
	}

	form := url.Values{}
	form.Set("username", p.Username)
	form.Set("password", p.Password)
	form.Set("email", p.Email)
	return s.apiRequest(EndpointRegister, form, func(r apiResult) {
		p.Callback(r.Result())
	})
}

// Login authenticates with username and password
func (s *Service) Login(p LoginParams) bool {
	return s.lc.Login(p)
}

func (s *Service) login(p LoginParams) bool {
	if !s.hasCallback(p.Callback) {
		return false
	}
	if !s.check(&p, p.Callback) {
		return false
	}

	form := url.Values{}
	form.Set("username", p.Username)
	form.Set("password", p.Password)
	form.Set("ref", s.ref)
	return s.apiRequest(EndpointLogin, form, func(r apiResult) {
		if r.err == nil {
			s.setAccount(r.data)
		}
		p.Callback(r.Result())
	})
}

// IsLoggedIn asks the backend for the current user
func (s *Service) IsLoggedIn(callback Callback) bool {
	if !s.hasCallback(callback) {
		return false
	}
	return s.apiRequest(EndpointMe, url.Values{}, func(r apiResult) {
		if r.err == nil {
			s.setAccount(r.data)
		}
		callback(r.Result())
	})
}

// LinkExternalAccount establishes or links a backend account from a provider profile
func (s *Service) LinkExternalAccount(p LinkParams) bool {
	if !s.hasCallback(p.Callback) {
		return false
	}
	if !s.check(&p, p.Callback) {
		return false
	}
	id, ok := p.Profile["id"]
	if !ok || id == nil || fmt.Sprint(id) == "" {
		s.lc.Log("profile has no id", capability.Warning)
		p.Callback(Result{Reason: ReasonMissingParameters, Err: errors.Configuration("profile id is required")})
		return false
	}
	fullRes, err := json.Marshal(p.Profile)
	if err != nil {
		s.logger.Warn("profile cannot be encoded", "provider", p.Provider, "error", err)
		p.Callback(Result{Reason: ReasonInvalidParameters, Err: errors.Wrap(err, errors.ErrCodeConfiguration, "invalid profile")})
		return false
	}
	accountType := p.Type
	if accountType == "" {
		accountType = p.Provider
	}

	form := url.Values{}
	form.Set("type", accountType)
	form.Set("id", formatID(id))
	form.Set("fullRes", string(fullRes))
	form.Set("ref", s.ref)
	return s.apiRequest(ConnectEndpoint(p.Provider), form, func(r apiResult) {
		if r.err == nil {
			s.setAccount(r.data)
		}
		p.Callback(r.Result())
	})
}

// Logout ends the backend session. Account information is cleared when the
// request completes, whatever its outcome. callback may be nil.
func (s *Service) Logout(callback Callback) bool {
	return s.apiRequest(EndpointLogout, url.Values{}, func(r apiResult) {
		s.clearAccount()
		if callback != nil {
			callback(r.Result())
		}
	})
}

func (s *Service) hasCallback(cb Callback) bool {
	if cb == nil {
		s.lc.Log("a callback needs to be passed in-order to function correctly.", capability.Warning)
		return false
	}
	return true
}

// check validates params and reports a failure through cb
func (s *Service) check(params any, cb Callback) bool {
	err := s.validate.Struct(params)
	if err == nil {
		return true
	}

	reason := ReasonInvalidParameters
	var fields []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
			if fe.Tag() == "required" {
				reason = ReasonMissingParameters
			}
		}
	}

	s.logger.Warn("not all of the needed parameters have been passed.", "provider", Name, "fields", fields)
	cb(Result{
		Reason: reason,
		Err:    errors.Configuration(reason).WithDetail("fields", fields),
	})
	return false
}

func formatID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
	}
	return fmt.Sprint(id)
}
