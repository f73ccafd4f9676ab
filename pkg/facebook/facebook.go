package facebook

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/singleflight"

	"github.com/tendant/socialconnect/pkg/capability"
	"github.com/tendant/socialconnect/pkg/errors"
	"github.com/tendant/socialconnect/pkg/provider"
)

const (
	// Name is the provider name
	Name = "facebook"
	// AccountType identifies linked accounts of this provider on the backend
	AccountType = "fb"
	// DefaultPictureKey is the image key used by Me when none is given
	DefaultPictureKey = "fb-current-user"

	defaultLoadTimeout = 30 * time.Second
)

// Provider is the social-network identity provider
type Provider struct {
	lc *capability.Lifecycle[InitConfig, provider.LoginParams, provider.ShareParams]

	probe       func() (SDK, bool)
	loader      Loader
	sdkURL      string
	loadTimeout time.Duration
	images      ImageLoader
	shareLink   string
	logger      *slog.Logger
	validate    *validator.Validate

	loads     singleflight.Group
	readyCh   chan struct{}
	readyOnce sync.Once

	mu      sync.RWMutex
	sdk     SDK
	ready   bool
	loadErr error
	session provider.Session
}

// Option configures a Provider
type Option func(*Provider)

// WithSDK uses an SDK handle that is already present
func WithSDK(sdk SDK) Option {
	return func(p *Provider) {
		p.probe = func() (SDK, bool) { return sdk, sdk != nil }
	}
}

// WithProbe sets the side-effect free presence check run at construction and at Init
func WithProbe(probe func() (SDK, bool)) Option {
	return func(p *Provider) {
		p.probe = probe
	}
}

// WithLoader sets how the SDK is fetched when the probe finds nothing
func WithLoader(loader Loader) Option {
	return func(p *Provider) {
		p.loader = loader
	}
}

// WithSDKURL overrides the location handed to the Loader
func WithSDKURL(sdkURL string) Option {
	return func(p *Provider) {
		if sdkURL != "" {
			p.sdkURL = sdkURL
		}
	}
}

// WithLoadTimeout bounds SDK loading
func WithLoadTimeout(d time.Duration) Option {
	return func(p *Provider) {
		if d > 0 {
			p.loadTimeout = d
		}
	}
}

// WithImageLoader sets the collaborator that receives profile picture URLs
func WithImageLoader(images ImageLoader) Option {
	return func(p *Provider) {
		p.images = images
	}
}

// WithShareLink sets the link shared when ShareParams.Link is empty
func WithShareLink(link string) Option {
	return func(p *Provider) {
		p.shareLink = link
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a Provider and probes for an existing SDK handle
func New(opts ...Option) *Provider {
	p := &Provider{
		probe:       func() (SDK, bool) { return nil, false },
		sdkURL:      DefaultSDKURL,
		loadTimeout: defaultLoadTimeout,
		logger:      slog.Default(),
		validate:    validator.New(),
		readyCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.lc = capability.New(Name,
		capability.Capabilities{RequiresInit: true, SupportsLogin: true, SupportsShare: true},
		capability.Hooks[InitConfig, provider.LoginParams, provider.ShareParams]{
			Init:  p.init,
			Login: p.login,
			Share: p.share,
		},
		capability.WithLogger(p.logger),
	)

	p.detect()
	return p
}

func (p *Provider) Name() string { return Name }

func (p *Provider) AccountType() string { return AccountType }

// Ready reports whether the SDK handle is usable
func (p *Provider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ready
}

func (p *Provider) Initialized() bool { return p.lc.Initialized() }

// LoggedIn reports whether the last login or status check found a connected user
func (p *Provider) LoggedIn() bool {
	return p.Session().LoggedIn()
}

// Session returns a copy of the current session
func (p *Provider) Session() provider.Session {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.session
	if s.Profile != nil {
		s.Profile = maps.Clone(s.Profile)
	}
	return s
}

// Init initializes the SDK. It returns true once initialization has been
// started; when the SDK has to be loaded, use WaitReady to await it.
func (p *Provider) Init(cfg InitConfig) bool {
	return p.lc.Init(cfg)
}

// Login opens the login prompt
func (p *Provider) Login(params provider.LoginParams) bool {
	return p.lc.Login(params)
}

// Share opens the share dialog
func (p *Provider) Share(params provider.ShareParams) bool {
	return p.lc.Share(params)
}

// WaitReady blocks until a loaded SDK has been initialized, loading failed, or ctx is done
func (p *Provider) WaitReady(ctx context.Context) error {
	select {
	case <-p.readyCh:
		p.mu.RLock()
		defer p.mu.RUnlock()
		return p.loadErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Provider) detect() SDK {
	if sdk := p.handle(); sdk != nil {
		return sdk
	}
	sdk, ok := p.probe()
	if !ok || sdk == nil {
		return nil
	}
	p.mu.Lock()
	p.sdk = sdk
	p.ready = true
	p.mu.Unlock()
	p.resolve()
	return sdk
}

func (p *Provider) handle() SDK {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sdk
}

func (p *Provider) resolve() {
	p.readyOnce.Do(func() { close(p.readyCh) })
}

func (p *Provider) init(cfg InitConfig) bool {
	if err := p.validate.Struct(cfg); err != nil {
		p.logger.Error("AppId is undefined", "provider", Name, "error", errors.Wrap(err, errors.ErrCodeConfiguration, "invalid init config"))
		return false
	}
	cfg = cfg.withDefaults()

	if sdk := p.detect(); sdk != nil {
		sdk.Init(cfg)
		return true
	}

	if p.loader == nil {
		p.logger.Error("SDK not detected and no loader configured", "provider", Name, "error", errors.Configuration("sdk loader is required"))
		return false
	}

	p.lc.Log("SDK not detected. Loading one in, and initializing after.", capability.Warning)
	p.load(cfg)
	return true
}

// load fetches the SDK once and initializes it with cfg when it arrives
func (p *Provider) load(cfg InitConfig) {
	ch := p.loads.DoChan(p.sdkURL, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), p.loadTimeout)
		defer cancel()
		return p.loader.Load(ctx, p.sdkURL)
	})

	go func() {
		res := <-ch
		sdk, _ := res.Val.(SDK)
		if res.Err != nil || sdk == nil {
			err := res.Err
			if err == nil {
				err = errors.Provider("loader returned no SDK")
			}
			p.logger.Error("failed to load SDK", "provider", Name, "url", p.sdkURL, "error", err)
			p.mu.Lock()
			p.loadErr = errors.Transport(err, "SDK could not be loaded")
			p.mu.Unlock()
			p.resolve()
			return
		}

		// The handle is published only once Init has returned.
		sdk.Init(cfg)

		p.mu.Lock()
		p.sdk = sdk
		p.ready = true
		p.mu.Unlock()

		p.logger.Debug("SDK loaded and initialized", "provider", Name)
		p.resolve()
	}()
}

// applyStatus maps an SDK login status and records the user id when connected
func (p *Provider) applyStatus(st LoginStatus) provider.LoginResult {
	switch {
	case st.Status == StatusConnected && st.AuthResponse != nil && st.AuthResponse.UserID != "":
		p.mu.Lock()
		p.session.ExternalUserID = st.AuthResponse.UserID
		p.mu.Unlock()
		return provider.LoginResult{Accessible: true, LoggedIn: true, Raw: st}
	case st.Status == StatusNotAuthorized:
		return provider.LoginResult{Accessible: false, LoggedIn: true, Raw: st}
	default:
		return provider.LoginResult{Raw: st}
	}
}

func (p *Provider) login(params provider.LoginParams) bool {
	sdk := p.handle()
	if sdk == nil {
		p.lc.Log("SDK is not ready", capability.Warning)
		return false
	}

	sdk.Login(params.Options, func(st LoginStatus) {
		res := p.applyStatus(st)
		if params.Callback != nil {
			params.Callback(res)
		}
	})
	return true
}

// LoginApproved checks whether the user is logged in and has authorized the
// app, without prompting.
func (p *Provider) LoginApproved(callback func(provider.LoginResult)) bool {
	if callback == nil {
		p.lc.Log("a callback needs to be passed in-order to function correctly.", capability.Warning)
		return false
	}
	sdk := p.handle()
	if sdk == nil {
		p.lc.Log("SDK is not ready", capability.Warning)
		return false
	}

	sdk.GetLoginStatus(func(st LoginStatus) {
		callback(p.applyStatus(st))
	})
	return true
}

// Logout signs the user out and clears the session once the SDK answers
func (p *Provider) Logout(callback func(provider.Response)) bool {
	sdk := p.handle()
	if sdk == nil {
		p.lc.Log("SDK is not ready", capability.Warning)
		return false
	}

	sdk.Logout(func(resp provider.Response) {
		p.mu.Lock()
		p.session = provider.Session{}
		p.mu.Unlock()
		if callback != nil {
			callback(resp)
		}
	})
	return true
}

// Me fetches the current user's profile
func (p *Provider) Me(params provider.ProfileParams) bool {
	if !p.Ready() || !p.Initialized() {
		p.lc.Log("has not been initialized, or isn't ready.", capability.Warning)
		return false
	}
	sdk := p.handle()

	path := "/me"
	if len(params.Fields) > 0 {
		path += "?" + url.Values{"fields": {strings.Join(params.Fields, ",")}}.Encode()
	}
	key := params.PictureKey
	if key == "" {
		key = DefaultPictureKey
	}

	sdk.API(path, func(resp provider.Response) {
		profile := provider.Profile(resp)
		if params.ShouldSave() {
			p.mu.Lock()
			p.session.Profile = maps.Clone(profile)
			p.mu.Unlock()
		}

		done := func() {
			if params.Callback != nil {
				params.Callback(profile)
			}
		}

		if params.AutoLoadPicture {
			if picture := pictureURL(resp); picture != "" {
				if p.images != nil {
					p.images.LoadImage(key, picture, done)
					return
				}
				p.lc.Log("picture found but no image loader configured", capability.Info)
			}
		}
		done()
	})
	return true
}

// MyImage loads the current user's picture without touching the saved profile
func (p *Provider) MyImage(params provider.ProfileParams) bool {
	params.Fields = []string{"picture"}
	params.SaveData = provider.Bool(false)
	params.AutoLoadPicture = true
	return p.Me(params)
}

// HasPermissions reports which of perms the current user has granted
func (p *Provider) HasPermissions(perms []string, callback func(PermissionResult)) bool {
	if len(perms) == 0 {
		p.lc.Log("you need to pass an array of permissions.", capability.Warning)
		return false
	}
	if callback == nil {
		p.lc.Log("a callback needs to be passed in-order to function correctly.", capability.Warning)
		return false
	}
	session := p.Session()
	if !session.LoggedIn() {
		p.lc.Log("we could not detect if the user is currently logged in.", capability.Warning)
		callback(PermissionResult{Granted: []string{}})
		return false
	}
	sdk := p.handle()
	if sdk == nil {
		p.lc.Log("SDK is not ready", capability.Warning)
		return false
	}

	requested := slices.Clone(perms)
	sdk.API("/"+session.ExternalUserID+"/permissions", func(resp provider.Response) {
		granted := grantedPermissions(resp, requested)
		all := true
		for _, perm := range requested {
			if !slices.Contains(granted, perm) {
				all = false
				break
			}
		}
		callback(PermissionResult{AllGranted: all, Granted: granted, Response: resp})
	})
	return true
}

func (p *Provider) share(params provider.ShareParams) bool {
	sdk := p.handle()
	if sdk == nil {
		p.lc.Log("SDK is not ready", capability.Warning)
		return false
	}

	ui := make(map[string]any, len(params.Extra)+2)
	for k, v := range params.Extra {
		ui[k] = v
	}
	ui["method"] = "share"
	link := params.Link
	if link == "" {
		link = p.shareLink
	}
	if link != "" {
		ui["href"] = link
	}

	sdk.UI(ui, func(resp provider.Response) {
		if params.Callback != nil {
			params.Callback(resp)
		}
	})
	return true
}

// grantedPermissions returns the requested permissions whose response item
// has status "granted", in response order and without duplicates
func grantedPermissions(resp provider.Response, requested []string) []string {
	granted := []string{}
	for _, item := range asList(resp["data"]) {
		entry := asMap(item)
		perm, _ := entry["permission"].(string)
		status, _ := entry["status"].(string)
		if status != "granted" || !slices.Contains(requested, perm) || slices.Contains(granted, perm) {
			continue
		}
		granted = append(granted, perm)
	}
	return granted
}

func pictureURL(resp provider.Response) string {
	data := asMap(asMap(resp["picture"])["data"])
	picture, _ := data["url"].(string)
	return picture
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case provider.Response:
		return m
	case provider.Profile:
		return m
	default:
		return nil
	}
}

func asList(v any) []any {
	switch l := v.(type) {
	case []any:
		return l
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out
	default:
		return nil
	}
}

var _ provider.Federated = (*Provider)(nil)
