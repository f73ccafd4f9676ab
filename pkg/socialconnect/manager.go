package socialconnect

import (
	"log/slog"
	"os"

	"github.com/tendant/socialconnect/pkg/account"
	"github.com/tendant/socialconnect/pkg/config"
	"github.com/tendant/socialconnect/pkg/facebook"
	"github.com/tendant/socialconnect/pkg/federation"
	"github.com/tendant/socialconnect/pkg/provider"
	"github.com/tendant/socialconnect/pkg/twitter"
)

const (
	Name    = "SocialConnect"
	Version = "0.9.0"
)

// Manager owns the providers, the account service and the orchestrator of one game
type Manager struct {
	Facebook   *facebook.Provider
	Twitter    *twitter.Provider
	Accounts   *account.Service
	Federation *federation.Orchestrator

	cfg    config.Config
	logger *slog.Logger
}

// InitConfig selects which providers Init initializes
type InitConfig struct {
	Facebook *facebook.InitConfig
	Twitter  bool
	Google   bool
}

type Option func(*options)

type options struct {
	logger          *slog.Logger
	facebookOptions []facebook.Option
	accountOptions  []account.Option
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithFacebookOptions passes options such as WithSDK or WithLoader to the provider
func WithFacebookOptions(opts ...facebook.Option) Option {
	return func(o *options) {
		o.facebookOptions = append(o.facebookOptions, opts...)
	}
}

// WithAccountOptions passes options such as WithHTTPClient to the account service
func WithAccountOptions(opts ...account.Option) Option {
	return func(o *options) {
		o.accountOptions = append(o.accountOptions, opts...)
	}
}

// New builds a Manager from configuration
func New(cfg config.Config, opts ...Option) *Manager {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.Default()
		if cfg.Debug {
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		}
	}
	logger = logger.With("plugin", Name)

	fbOpts := []facebook.Option{
		facebook.WithLogger(logger),
		facebook.WithSDKURL(cfg.Facebook.SDKURL),
		facebook.WithShareLink(cfg.Facebook.ShareLink),
	}
	fb := facebook.New(append(fbOpts, o.facebookOptions...)...)

	accounts := account.NewService(cfg.Account, append([]account.Option{account.WithLogger(logger)}, o.accountOptions...)...)

	return &Manager{
		Facebook:   fb,
		Twitter:    twitter.New(logger),
		Accounts:   accounts,
		Federation: federation.New(fb, accounts, federation.WithLogger(logger)),
		cfg:        cfg,
		logger:     logger,
	}
}

// Init initializes every requested provider. It returns false if any of them
// could not be initialized.
func (m *Manager) Init(cfg InitConfig) bool {
	ok := true
	if cfg.Facebook != nil {
		ok = m.Facebook.Init(*cfg.Facebook) && ok
	}
	if cfg.Twitter {
		m.logger.Error("Twitter has not been implemented just yet.")
		ok = false
	}
	if cfg.Google {
		m.logger.Error("Google Plus has not been implemented just yet.")
		ok = false
	}
	return ok
}

// InitFromConfig initializes the providers that have configuration
func (m *Manager) InitFromConfig() bool {
	var cfg InitConfig
	if m.cfg.Facebook.Enabled() {
		cfg.Facebook = &facebook.InitConfig{
			AppID:   m.cfg.Facebook.AppID,
			Version: m.cfg.Facebook.Version,
		}
	}
	return m.Init(cfg)
}

// LoginWithFacebook runs the federated login handshake with the social-network provider
func (m *Manager) LoginWithFacebook(params federation.Params) bool {
	return m.Federation.Login(params)
}

// Providers lists the identity providers
func (m *Manager) Providers() []provider.IdentityProvider {
	return []provider.IdentityProvider{m.Facebook, m.Twitter}
}

// Provider looks up an identity provider by name
func (m *Manager) Provider(name string) (provider.IdentityProvider, bool) {
	for _, p := range m.Providers() {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}
