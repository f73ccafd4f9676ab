// Package config loads socialconnect configuration.
//
// Settings come from environment variables through cleanenv struct tags, with
// an optional yaml/json/toml/.env file:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	svc := account.NewService(cfg.Account)
//
// Environment variables:
//   - SOCIAL_DEBUG: verbose logging (default: false)
//   - ACCOUNT_SERVER_URL: backend base URL (default: http://api.gamefroot.com/v1/)
//   - ACCOUNT_TIMEOUT: per-request timeout (default: 30s)
//   - ACCOUNT_GAME_NAME: value of the "game" field sent with every request
//   - ACCOUNT_REF: value of the "ref" field sent on login and link
//   - FACEBOOK_APP_ID: social-network application id
//   - FACEBOOK_VERSION: SDK API version (default: v2.2)
//   - FACEBOOK_SDK_URL: SDK script location (default: http://connect.facebook.net/en_US/sdk.js)
//   - FACEBOOK_SHARE_LINK: default link for the share dialog
//
// The small helpers GetEnvOrDefault, GetEnvBool and GetEnvDuration
// serve binaries that need one-off values outside Config. APP_ENV selects the
// Environment (development, production, test).
package config
