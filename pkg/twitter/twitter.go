// Package twitter is a placeholder provider. Every capability is disabled
// until an SDK integration exists, so all operations report false.
package twitter

import (
	"log/slog"

	"github.com/tendant/socialconnect/pkg/capability"
	"github.com/tendant/socialconnect/pkg/provider"
)

const Name = "twitter"

// InitConfig is accepted for symmetry with other providers
type InitConfig struct {
	ConsumerKey string
}

type Provider struct {
	lc *capability.Lifecycle[InitConfig, provider.LoginParams, provider.ShareParams]
}

func New(logger *slog.Logger) *Provider {
	var opts []capability.Option
	if logger != nil {
		opts = append(opts, capability.WithLogger(logger))
	}
	return &Provider{
		lc: capability.New(Name, capability.Capabilities{},
			capability.Hooks[InitConfig, provider.LoginParams, provider.ShareParams]{}, opts...),
	}
}

func (p *Provider) Name() string      { return Name }
func (p *Provider) Ready() bool       { return false }
func (p *Provider) Initialized() bool { return p.lc.Initialized() }
func (p *Provider) LoggedIn() bool    { return false }

func (p *Provider) Init(cfg InitConfig) bool {
	return p.lc.Init(cfg)
}

func (p *Provider) Login(params provider.LoginParams) bool {
	return p.lc.Login(params)
}

func (p *Provider) Share(params provider.ShareParams) bool {
	return p.lc.Share(params)
}

func (p *Provider) Logout(func(provider.Response)) bool {
	p.lc.Log("logout is not supported", capability.Info)
	return false
}

var _ provider.IdentityProvider = (*Provider)(nil)
