package federation

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/socialconnect/pkg/account"
	"github.com/tendant/socialconnect/pkg/config"
	"github.com/tendant/socialconnect/pkg/devbackend"
	"github.com/tendant/socialconnect/pkg/errors"
	"github.com/tendant/socialconnect/pkg/facebook"
	"github.com/tendant/socialconnect/pkg/facebook/facebooktest"
	"github.com/tendant/socialconnect/pkg/provider"
)

type backend struct {
	mu    sync.Mutex
	forms []url.Values
	paths []string
	hold  chan struct{}
}

func newBackend(t *testing.T, body string) (*backend, *httptest.Server) {
	t.Helper()
	b := &backend{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		b.mu.Lock()
		b.forms = append(b.forms, r.PostForm)
		b.paths = append(b.paths, r.URL.Path)
		hold := b.hold
		b.mu.Unlock()
		if hold != nil {
			select {
			case <-hold:
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return b, srv
}

func (b *backend) requests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.forms)
}

func (b *backend) request(i int) (string, url.Values) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paths[i], b.forms[i]
}

func newProvider(t *testing.T, sdk *facebooktest.SDK) *facebook.Provider {
	t.Helper()
	p := facebook.New(facebook.WithSDK(sdk))
	require.True(t, p.Init(facebook.InitConfig{AppID: "app-1"}))
	return p
}

func newAccounts(serverURL string) *account.Service {
	return account.NewService(config.AccountConfig{ServerURL: serverURL + "/", GameName: "space-race"})
}

func capture() (account.Callback, <-chan account.Result) {
	ch := make(chan account.Result, 4)
	return func(r account.Result) { ch <- r }, ch
}

func await(t *testing.T, ch <-chan account.Result) account.Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("handshake did not complete")
		return account.Result{}
	}
}

func TestLoginPromptsWhenNotApproved(t *testing.T) {
	sdk := facebooktest.New()
	sdk.CurrentStatus = facebook.LoginStatus{Status: facebook.StatusUnknown}
	sdk.LoginStatus = facebooktest.Connected("42")
	sdk.APIResponses["/me?fields=id%2Cname"] = provider.Response{"id": "42", "name": "X"}

	b, srv := newBackend(t, `{"accountId":42}`)
	orch := New(newProvider(t, sdk), newAccounts(srv.URL))

	cb, results := capture()
	require.True(t, orch.Login(Params{
		Options:  provider.LoginOptions{Scope: []string{"email"}},
		Fields:   []string{"id", "name"},
		Callback: cb,
	}))

	r := await(t, results)
	assert.True(t, r.OK)
	assert.Equal(t, map[string]any{"accountId": float64(42)}, r.Data)

	assert.Equal(t, 1, sdk.Count("getLoginStatus"))
	assert.Equal(t, 1, sdk.Count("login"))
	assert.Equal(t, 1, b.requests())
	path, form := b.request(0)
	assert.Equal(t, "/auth/facebook/connect", path)
	assert.Equal(t, "fb", form.Get("type"))
	assert.Equal(t, "42", form.Get("id"))
	assert.Empty(t, results)
}

func TestApprovedSkipsLogin(t *testing.T) {
	sdk := facebooktest.New()
	sdk.CurrentStatus = facebooktest.Connected("42")
	sdk.APIResponses["/me"] = provider.Response{"id": "42"}

	_, srv := newBackend(t, `{"data":{"accountId":42}}`)
	p := newProvider(t, sdk)
	orch := New(p, newAccounts(srv.URL))

	cb, results := capture()
	require.True(t, orch.Login(Params{Callback: cb}))

	r := await(t, results)
	assert.True(t, r.OK)
	assert.Equal(t, 0, sdk.Count("login"), "login must not be invoked")
	assert.Equal(t, "42", p.Session().Profile.String("id"))
}

func TestNotLoggedIntoProvider(t *testing.T) {
	for _, status := range []string{facebook.StatusNotAuthorized, facebook.StatusUnknown} {
		t.Run(status, func(t *testing.T) {
			sdk := facebooktest.New()
			sdk.LoginStatus = facebook.LoginStatus{Status: status}

			b, srv := newBackend(t, `{}`)
			orch := New(newProvider(t, sdk), newAccounts(srv.URL))

			cb, results := capture()
			require.True(t, orch.Login(Params{Callback: cb}))

			r := await(t, results)
			assert.False(t, r.OK)
			assert.Equal(t, ReasonNotLoggedIn, r.Reason)
			assert.True(t, errors.IsCode(r.Err, errors.ErrCodeProvider))
			assert.Equal(t, 0, sdk.Count("api"))
			assert.Equal(t, 0, b.requests())
		})
	}
}

func TestProfileNotDispatchable(t *testing.T) {
	sdk := facebooktest.New()
	sdk.CurrentStatus = facebooktest.Connected("42")
	// SDK present but Init never called
	p := facebook.New(facebook.WithSDK(sdk))

	b, srv := newBackend(t, `{}`)
	orch := New(p, newAccounts(srv.URL))

	cb, results := capture()
	require.True(t, orch.Login(Params{Callback: cb}))

	r := await(t, results)
	assert.Equal(t, ReasonProfileFetch, r.Reason)
	assert.True(t, errors.IsCode(r.Err, errors.ErrCodeState))
	assert.Equal(t, 0, b.requests())
}

func TestProfileErrorResponse(t *testing.T) {
	sdk := facebooktest.New()
	sdk.CurrentStatus = facebooktest.Connected("42")
	// no scripted /me response: the fake answers with an error object

	b, srv := newBackend(t, `{}`)
	orch := New(newProvider(t, sdk), newAccounts(srv.URL))

	cb, results := capture()
	require.True(t, orch.Login(Params{Callback: cb}))

	r := await(t, results)
	assert.Equal(t, ReasonProfileFetch, r.Reason)
	assert.True(t, errors.IsCode(r.Err, errors.ErrCodeProvider))
	assert.Equal(t, 0, b.requests())
}

func TestAccountServiceBusy(t *testing.T) {
	sdk := facebooktest.New()
	sdk.CurrentStatus = facebooktest.Connected("42")
	sdk.APIResponses["/me"] = provider.Response{"id": "42"}

	b, srv := newBackend(t, `{"id":1}`)
	release := make(chan struct{})
	b.mu.Lock()
	b.hold = release
	b.mu.Unlock()
	defer close(release)

	accounts := newAccounts(srv.URL)
	orch := New(newProvider(t, sdk), accounts)

	pending, _ := capture()
	require.True(t, accounts.IsLoggedIn(pending))

	cb, results := capture()
	require.True(t, orch.Login(Params{Callback: cb}))

	r := await(t, results)
	assert.False(t, r.OK)
	assert.Equal(t, ReasonAccountBusy, r.Reason)
	assert.True(t, errors.IsCode(r.Err, errors.ErrCodeState))
}

func TestLinkRequestBuildFailureIsNotBusy(t *testing.T) {
	sdk := facebooktest.New()
	sdk.CurrentStatus = facebooktest.Connected("42")
	sdk.APIResponses["/me"] = provider.Response{"id": "42"}

	accounts := account.NewService(config.AccountConfig{ServerURL: "http://bad host/v1/"})
	orch := New(newProvider(t, sdk), accounts)

	cb, results := capture()
	require.True(t, orch.Login(Params{Callback: cb}))

	r := await(t, results)
	assert.False(t, r.OK)
	assert.NotEqual(t, ReasonAccountBusy, r.Reason)
	assert.Equal(t, account.ReasonInvalidParameters, r.Reason)
	assert.True(t, errors.IsCode(r.Err, errors.ErrCodeConfiguration))
	assert.True(t, accounts.Ready())
	assert.Empty(t, results)
}

func TestBackendFailurePropagates(t *testing.T) {
	sdk := facebooktest.New()
	sdk.CurrentStatus = facebooktest.Connected("42")
	sdk.APIResponses["/me"] = provider.Response{"id": "42"}

	_, srv := newBackend(t, `{"result":"fail","data":{"message":"Account suspended"}}`)
	orch := New(newProvider(t, sdk), newAccounts(srv.URL))

	cb, results := capture()
	require.True(t, orch.Login(Params{Callback: cb}))

	r := await(t, results)
	assert.False(t, r.OK)
	assert.Equal(t, "Account suspended", r.Reason)
	assert.True(t, errors.IsCode(r.Err, errors.ErrCodeBackend))
}

func TestSynchronousFailures(t *testing.T) {
	sdk := facebooktest.New()
	_, srv := newBackend(t, `{}`)

	t.Run("missing callback", func(t *testing.T) {
		orch := New(newProvider(t, sdk), newAccounts(srv.URL))
		assert.False(t, orch.Login(Params{}))
		assert.Equal(t, 0, sdk.Count("getLoginStatus"))
	})

	t.Run("sdk not ready", func(t *testing.T) {
		orch := New(facebook.New(), newAccounts(srv.URL))
		cb, results := capture()
		assert.False(t, orch.Login(Params{Callback: cb}))
		assert.Empty(t, results)
	})
}

type linkerFunc func(account.LinkParams) bool

func (f linkerFunc) LinkExternalAccount(p account.LinkParams) bool { return f(p) }

func TestExactlyOneOutcome(t *testing.T) {
	sdk := facebooktest.New()
	sdk.CurrentStatus = facebooktest.Connected("42")
	sdk.APIResponses["/me"] = provider.Response{"id": "42"}

	// a linker that reports a failure through the callback and also returns false
	linker := linkerFunc(func(p account.LinkParams) bool {
		p.Callback(account.Result{Reason: account.ReasonMissingParameters})
		return false
	})
	orch := New(newProvider(t, sdk), linker)

	cb, results := capture()
	require.True(t, orch.Login(Params{Callback: cb}))

	r := await(t, results)
	assert.Equal(t, account.ReasonMissingParameters, r.Reason)
	assert.Empty(t, results)
}

func TestAsyncEndToEnd(t *testing.T) {
	h := devbackend.NewHandler(
		devbackend.NewService(devbackend.NewInMemoryRepository(), devbackend.WithBcryptCost(bcrypt.MinCost)),
		[]byte("test-secret"),
	)
	r := chi.NewRouter()
	r.Mount("/v1", h.Routes())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	sdk := facebooktest.New()
	sdk.Async = true
	sdk.CurrentStatus = facebook.LoginStatus{Status: facebook.StatusNotAuthorized}
	sdk.LoginStatus = facebooktest.Connected("1001")
	sdk.APIResponses["/me?fields=id%2Cname%2Cemail"] = provider.Response{"id": "1001", "name": "Grace", "email": "grace@example.com"}

	accounts := account.NewService(config.AccountConfig{ServerURL: srv.URL + "/v1/", GameName: "space-race"})
	fb := newProvider(t, sdk)
	orch := New(fb, accounts)

	cb, results := capture()
	require.True(t, orch.Login(Params{Fields: []string{"id", "name", "email"}, Callback: cb}))

	res := await(t, results)
	require.True(t, res.OK, res.Reason)
	assert.Equal(t, true, res.Data["created"])
	assert.Equal(t, "grace@example.com", res.Data["email"])
	assert.True(t, fb.LoggedIn())
	assert.True(t, accounts.LoggedIn())

	// a second handshake finds the existing link
	require.True(t, orch.Login(Params{Fields: []string{"id", "name", "email"}, Callback: cb}))
	again := await(t, results)
	require.True(t, again.OK, again.Reason)
	assert.Equal(t, res.Data["id"], again.Data["id"])
}
