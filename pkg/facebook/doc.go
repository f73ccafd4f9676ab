// Package facebook implements the social-network identity provider.
//
// The provider drives an injected SDK handle. The handle is either present
// when the provider is created (WithSDK / WithProbe) or fetched on Init by a
// Loader; in the latter case Init returns true immediately and WaitReady
// resolves once the loaded SDK has been initialized.
//
//	fb := facebook.New(
//		facebook.WithLoader(loader),
//		facebook.WithImageLoader(assets),
//		facebook.WithShareLink("https://example.com/game"),
//	)
//	if !fb.Init(facebook.InitConfig{AppID: cfg.Facebook.AppID}) {
//		return
//	}
//	_ = fb.WaitReady(ctx)
//
//	fb.Login(provider.LoginParams{
//		Options: provider.LoginOptions{Scope: []string{"email"}},
//		Callback: func(r provider.LoginResult) {
//			if r.Accessible {
//				fb.Me(provider.ProfileParams{Fields: []string{"id", "name", "email"}})
//			}
//		},
//	})
//
// Login status mapping:
//
//	connected       accessible, logged in, session user id set
//	not_authorized  logged in only
//	anything else   neither
//
// Callbacks run on whichever goroutine the SDK delivers them on. The provider
// never holds its lock while calling the SDK or a callback.
package facebook
