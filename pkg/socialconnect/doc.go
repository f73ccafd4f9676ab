// Package socialconnect wires identity providers and the backend account
// service together for a game.
//
//	cfg, _ := config.Load()
//	social := socialconnect.New(cfg,
//		socialconnect.WithFacebookOptions(facebook.WithLoader(loader)),
//	)
//	social.InitFromConfig()
//
//	social.LoginWithFacebook(federation.Params{
//		Fields:   []string{"id", "name", "email"},
//		Callback: func(r account.Result) { ... },
//	})
package socialconnect
