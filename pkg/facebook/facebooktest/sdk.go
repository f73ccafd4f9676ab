// Package facebooktest provides an in-memory facebook.SDK for tests.
package facebooktest

import (
	"sync"

	"github.com/tendant/socialconnect/pkg/facebook"
	"github.com/tendant/socialconnect/pkg/provider"
)

// Call records one SDK invocation
type Call struct {
	Method string
	Path   string
	Params map[string]any
}

// SDK is a scriptable facebook.SDK. Callbacks run synchronously unless Async is set.
type SDK struct {
	mu sync.Mutex

	// LoginStatus answers Login
	LoginStatus facebook.LoginStatus
	// CurrentStatus answers GetLoginStatus
	CurrentStatus facebook.LoginStatus
	// APIResponses maps a request path to its response
	APIResponses map[string]provider.Response
	// UIResponse answers UI
	UIResponse provider.Response
	// LogoutResponse answers Logout
	LogoutResponse provider.Response
	// Async delivers every callback from a new goroutine
	Async bool
	// Hold, when set, keeps API callbacks pending until Release is called
	Hold bool

	calls   []Call
	inits   []facebook.InitConfig
	pending []func()
}

// New returns an SDK whose users are logged out
func New() *SDK {
	return &SDK{
		LoginStatus:   facebook.LoginStatus{Status: facebook.StatusUnknown},
		CurrentStatus: facebook.LoginStatus{Status: facebook.StatusUnknown},
		APIResponses:  map[string]provider.Response{},
	}
}

// Connected builds a connected status for userID
func Connected(userID string) facebook.LoginStatus {
	return facebook.LoginStatus{
		Status:       facebook.StatusConnected,
		AuthResponse: &facebook.AuthResponse{UserID: userID, AccessToken: "token-" + userID},
	}
}

func (s *SDK) record(c Call) {
	s.mu.Lock()
	s.calls = append(s.calls, c)
	s.mu.Unlock()
}

func (s *SDK) deliver(fn func()) {
	if s.Async {
		go fn()
		return
	}
	fn()
}

func (s *SDK) Init(cfg facebook.InitConfig) {
	s.mu.Lock()
	s.inits = append(s.inits, cfg)
	s.mu.Unlock()
	s.record(Call{Method: "init"})
}

func (s *SDK) Login(opts provider.LoginOptions, callback func(facebook.LoginStatus)) {
	s.record(Call{Method: "login", Params: map[string]any{"scope": opts.Scope}})
	s.mu.Lock()
	st := s.LoginStatus
	s.mu.Unlock()
	s.deliver(func() { callback(st) })
}

func (s *SDK) GetLoginStatus(callback func(facebook.LoginStatus)) {
	s.record(Call{Method: "getLoginStatus"})
	s.mu.Lock()
	st := s.CurrentStatus
	s.mu.Unlock()
	s.deliver(func() { callback(st) })
}

func (s *SDK) Logout(callback func(provider.Response)) {
	s.record(Call{Method: "logout"})
	s.mu.Lock()
	resp := s.LogoutResponse
	s.mu.Unlock()
	s.deliver(func() { callback(resp) })
}

func (s *SDK) API(path string, callback func(provider.Response)) {
	s.record(Call{Method: "api", Path: path})
	s.mu.Lock()
	resp, ok := s.APIResponses[path]
	if !ok {
		resp = provider.Response{"error": map[string]any{"message": "unknown path " + path}}
	}
	if s.Hold {
		s.pending = append(s.pending, func() { callback(resp) })
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	s.deliver(func() { callback(resp) })
}

func (s *SDK) UI(params map[string]any, callback func(provider.Response)) {
	s.record(Call{Method: "ui", Params: params})
	s.mu.Lock()
	resp := s.UIResponse
	s.mu.Unlock()
	s.deliver(func() { callback(resp) })
}

// Release delivers API responses held back by Hold
func (s *SDK) Release() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.Hold = false
	s.mu.Unlock()
	for _, fn := range pending {
		fn()
	}
}

// Calls returns every recorded call
func (s *SDK) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Count returns how often method was called
func (s *SDK) Count(method string) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Inits returns the configs passed to Init
func (s *SDK) Inits() []facebook.InitConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]facebook.InitConfig(nil), s.inits...)
}

// Set updates scripted fields under the SDK lock
func (s *SDK) Set(fn func(s *SDK)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

var _ facebook.SDK = (*SDK)(nil)
