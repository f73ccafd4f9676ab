package capability

import (
	"log/slog"
	"sync"
)

// Severity classifies diagnostic log entries
type Severity int

const (
	Info Severity = iota + 1
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// State is the initialization state of a provider
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Capabilities is the fixed descriptor of what a provider variant supports
type Capabilities struct {
	RequiresInit  bool
	SupportsLogin bool
	SupportsShare bool
}

// Hooks holds the provider-specific implementations. A nil hook is absent.
type Hooks[I, L, S any] struct {
	Init  func(I) bool
	Login func(L) bool
	Share func(S) bool
}

// Lifecycle enforces capability gating and one-time initialization for a provider.
// Providers embed or hold a Lifecycle and route their public Init/Login/Share through it.
type Lifecycle[I, L, S any] struct {
	name   string
	caps   Capabilities
	hooks  Hooks[I, L, S]
	logger *slog.Logger

	mu    sync.Mutex
	state State
}

// Option configures a Lifecycle
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// New creates a Lifecycle. Capabilities and hooks cannot change afterwards.
func New[I, L, S any](name string, caps Capabilities, hooks Hooks[I, L, S], opts ...Option) *Lifecycle[I, L, S] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Lifecycle[I, L, S]{
		name:   name,
		caps:   caps,
		hooks:  hooks,
		logger: o.logger.With("provider", name),
	}
}

func (l *Lifecycle[I, L, S]) Name() string { return l.name }

func (l *Lifecycle[I, L, S]) Capabilities() Capabilities { return l.caps }

func (l *Lifecycle[I, L, S]) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Initialized reports whether Init has completed successfully
func (l *Lifecycle[I, L, S]) Initialized() bool {
	return l.State() == StateReady
}

// Init runs the init hook once. It returns false when initialization is not
// required, already done or in progress, or when the hook is absent or fails.
func (l *Lifecycle[I, L, S]) Init(cfg I) bool {
	if !l.caps.RequiresInit {
		l.Log("does not require initialization", Info)
		return false
	}

	l.mu.Lock()
	if l.state != StateUninitialized {
		l.mu.Unlock()
		l.Log("has already been initialized", Warning)
		return false
	}
	if l.hooks.Init == nil {
		l.mu.Unlock()
		l.Log("has no init implementation", Warning)
		return false
	}
	l.state = StateInitializing
	l.mu.Unlock()

	ok := l.hooks.Init(cfg)

	l.mu.Lock()
	if ok {
		l.state = StateReady
	} else {
		l.state = StateUninitialized
	}
	l.mu.Unlock()
	return ok
}

// Login delegates to the login hook when the capability is enabled and the
// provider is initialized (if it needs to be).
func (l *Lifecycle[I, L, S]) Login(params L) bool {
	if !l.allowed("login", l.caps.SupportsLogin) {
		return false
	}
	if l.hooks.Login == nil {
		l.Log("has no login implementation", Warning)
		return false
	}
	return l.hooks.Login(params)
}

// Share delegates to the share hook, gated the same way as Login
func (l *Lifecycle[I, L, S]) Share(params S) bool {
	if !l.allowed("share", l.caps.SupportsShare) {
		return false
	}
	if l.hooks.Share == nil {
		l.Log("has no share implementation", Warning)
		return false
	}
	return l.hooks.Share(params)
}

func (l *Lifecycle[I, L, S]) allowed(op string, supported bool) bool {
	if !supported {
		l.Log(op+" is not supported", Info)
		return false
	}
	if l.caps.RequiresInit && !l.Initialized() {
		l.Log("must be initialized before "+op, Warning)
		return false
	}
	return true
}

// Log writes a diagnostic entry. It never affects control flow.
func (l *Lifecycle[I, L, S]) Log(msg string, severity Severity) {
	switch severity {
	case Error:
		l.logger.Error(msg)
	case Warning:
		l.logger.Warn(msg)
	default:
		l.logger.Info(msg)
	}
}

// Logger returns the provider-scoped logger
func (l *Lifecycle[I, L, S]) Logger() *slog.Logger {
	return l.logger
}
