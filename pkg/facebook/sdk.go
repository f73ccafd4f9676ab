package facebook

import (
	"context"

	"github.com/tendant/socialconnect/pkg/provider"
)

// Login statuses reported by the SDK
const (
	StatusConnected     = "connected"
	StatusNotAuthorized = "not_authorized"
	StatusUnknown       = "unknown"
)

// DefaultSDKURL is where the SDK script is loaded from when none is configured
const DefaultSDKURL = "http://connect.facebook.net/en_US/sdk.js"

// DefaultVersion is the API version used when InitConfig.Version is empty
const DefaultVersion = "v2.2"

// SDK is the vendor SDK surface the provider drives. Implementations may
// invoke callbacks synchronously or from another goroutine.
type SDK interface {
	Init(cfg InitConfig)
	Login(opts provider.LoginOptions, callback func(LoginStatus))
	GetLoginStatus(callback func(LoginStatus))
	Logout(callback func(provider.Response))
	API(path string, callback func(provider.Response))
	UI(params map[string]any, callback func(provider.Response))
}

// AuthResponse is the authorization part of a connected LoginStatus
type AuthResponse struct {
	UserID        string `json:"userID"`
	AccessToken   string `json:"accessToken"`
	ExpiresIn     int    `json:"expiresIn"`
	GrantedScopes string `json:"grantedScopes,omitempty"`
}

// LoginStatus is the SDK's answer to login and getLoginStatus
type LoginStatus struct {
	Status       string        `json:"status"`
	AuthResponse *AuthResponse `json:"authResponse,omitempty"`
}

// InitConfig is passed to SDK.Init
type InitConfig struct {
	AppID      string `json:"appId" validate:"required"`
	Version    string `json:"version,omitempty"`
	Status     *bool  `json:"status,omitempty"`
	Cookie     bool   `json:"cookie,omitempty"`
	XFBML      bool   `json:"xfbml,omitempty"`
	ChannelURL string `json:"channelUrl,omitempty"`
}

func (c InitConfig) withDefaults() InitConfig {
	if c.Version == "" {
		c.Version = DefaultVersion
	}
	if c.Status == nil {
		c.Status = provider.Bool(true)
	}
	return c
}

// Loader fetches the SDK when it is not already present in the host
type Loader interface {
	Load(ctx context.Context, url string) (SDK, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context, url string) (SDK, error)

func (f LoaderFunc) Load(ctx context.Context, url string) (SDK, error) {
	return f(ctx, url)
}

// ImageLoader hands a picture URL to the host's asset pipeline.
// done must be called once the image has been loaded (or has failed).
type ImageLoader interface {
	LoadImage(key, url string, done func())
}

// ImageLoaderFunc adapts a function to ImageLoader
type ImageLoaderFunc func(key, url string, done func())

func (f ImageLoaderFunc) LoadImage(key, url string, done func()) {
	f(key, url, done)
}

// PermissionResult is passed to the HasPermissions callback
type PermissionResult struct {
	// AllGranted is true when every requested permission was granted
	AllGranted bool
	// Granted is the subset of requested permissions the user has granted
	Granted  []string
	Response provider.Response
}
