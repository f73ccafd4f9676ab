package provider

// Response is a raw, provider-specific payload returned by an SDK call
type Response map[string]any

// Profile is the key/value user profile reported by a provider
type Profile map[string]any

// String returns the string value stored under key, or ""
func (p Profile) String(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// Session is the in-memory record of the currently authenticated external identity
type Session struct {
	ExternalUserID string
	Profile        Profile
}

// LoggedIn reports whether an external user id is present
func (s Session) LoggedIn() bool {
	return s.ExternalUserID != ""
}

// LoginResult is the outcome of a login or status check.
// Accessible means the app may act on behalf of the user; LoggedIn means the
// user is signed into the provider, whether or not the app is authorized.
type LoginResult struct {
	Accessible bool
	LoggedIn   bool
	Raw        any
}

// LoginOptions are passed through to the provider's login prompt
type LoginOptions struct {
	Scope        []string
	ReturnScopes bool
	AuthType     string
}

// LoginParams are the arguments of IdentityProvider.Login
type LoginParams struct {
	Options  LoginOptions
	Callback func(LoginResult)
}

// ProfileParams are the arguments of Federated.Me
type ProfileParams struct {
	Fields []string
	// SaveData controls whether the result replaces Session.Profile. nil means true.
	SaveData        *bool
	AutoLoadPicture bool
	PictureKey      string
	Callback        func(Profile)
}

// ShouldSave resolves SaveData, defaulting to true
func (p ProfileParams) ShouldSave() bool {
	return p.SaveData == nil || *p.SaveData
}

// ShareParams are the arguments of IdentityProvider.Share
type ShareParams struct {
	Link     string
	Extra    map[string]any
	Callback func(Response)
}

// IdentityProvider is the host-facing surface every provider implements
type IdentityProvider interface {
	Name() string
	// Ready reports whether the vendor SDK is usable
	Ready() bool
	Initialized() bool
	LoggedIn() bool
	Login(params LoginParams) bool
	Share(params ShareParams) bool
	Logout(callback func(Response)) bool
}

// Federated is a provider whose identity can be linked to a backend account
type Federated interface {
	IdentityProvider
	// AccountType is the identifier the backend uses for this provider
	AccountType() string
	// LoginApproved checks the current status without prompting the user
	LoginApproved(callback func(LoginResult)) bool
	Me(params ProfileParams) bool
}

// Bool returns a pointer to b, for optional flags such as ProfileParams.SaveData
func Bool(b bool) *bool {
	return &b
}
