package federation

import (
	"log/slog"
	"sync"

	"github.com/tendant/socialconnect/pkg/account"
	"github.com/tendant/socialconnect/pkg/errors"
	"github.com/tendant/socialconnect/pkg/provider"
)

// Failure reasons reported by the handshake
const (
	ReasonNotLoggedIn  = "not logged into provider"
	ReasonProfileFetch = "error retrieving profile"
	ReasonAccountBusy  = "account service busy"
)

// Linker links a provider profile to a backend account. *account.Service implements it.
type Linker interface {
	LinkExternalAccount(p account.LinkParams) bool
}

// Params are the arguments of Orchestrator.Login
type Params struct {
	// Options are passed to the provider's login prompt, if one is needed
	Options provider.LoginOptions
	// Fields are the profile fields requested from the provider
	Fields   []string
	Callback account.Callback
}

// Orchestrator runs the federated login handshake:
// status check, login prompt if needed, profile fetch, backend link.
type Orchestrator struct {
	provider provider.Federated
	accounts Linker
	logger   *slog.Logger
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func New(p provider.Federated, accounts Linker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider: p,
		accounts: accounts,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("provider", p.Name())
	return o
}

// Login starts the handshake. It returns false when no callback is given or
// the provider status check cannot be dispatched; otherwise Callback receives
// exactly one Result. A successful Result is the backend's link response.
func (o *Orchestrator) Login(params Params) bool {
	if params.Callback == nil {
		o.logger.Warn("a callback needs to be passed in-order to function correctly.")
		return false
	}

	h := &handshake{o: o, params: params}
	return o.provider.LoginApproved(func(r provider.LoginResult) {
		if r.Accessible {
			h.fetchProfile()
			return
		}
		h.promptLogin()
	})
}

// handshake is the state of one Login call
type handshake struct {
	o      *Orchestrator
	params Params
	once   sync.Once
}

func (h *handshake) finish(r account.Result) {
	h.once.Do(func() {
		h.params.Callback(r)
	})
}

func (h *handshake) fail(reason string, err error) {
	h.once.Do(func() {
		h.o.logger.Warn("federated login failed", "reason", reason, "error", err)
		h.params.Callback(account.Result{Reason: reason, Err: err})
	})
}

func (h *handshake) promptLogin() {
	ok := h.o.provider.Login(provider.LoginParams{
		Options: h.params.Options,
		Callback: func(r provider.LoginResult) {
			if !r.Accessible {
				h.fail(ReasonNotLoggedIn, errors.Provider("user did not authorize the app").WithDetail("logged_in", r.LoggedIn))
				return
			}
			h.fetchProfile()
		},
	})
	if !ok {
		h.fail(ReasonNotLoggedIn, errors.State("provider login could not be started"))
	}
}

func (h *handshake) fetchProfile() {
	ok := h.o.provider.Me(provider.ProfileParams{
		Fields:   h.params.Fields,
		SaveData: provider.Bool(true),
		Callback: func(profile provider.Profile) {
			if _, failed := profile["error"]; failed {
				h.fail(ReasonProfileFetch, errors.Provider("profile request returned an error").WithDetail("response", map[string]any(profile)))
				return
			}
			h.link(profile)
		},
	})
	if !ok {
		h.fail(ReasonProfileFetch, errors.State("provider is not ready"))
	}
}

func (h *handshake) link(profile provider.Profile) {
	ok := h.o.accounts.LinkExternalAccount(account.LinkParams{
		Provider: h.o.provider.Name(),
		Type:     h.o.provider.AccountType(),
		Profile:  profile,
		Callback: h.finish,
	})
	if !ok {
		h.fail(ReasonAccountBusy, errors.State("account service rejected the link request"))
	}
}
