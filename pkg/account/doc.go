// Package account is the client of the backend account API.
//
// A Service allows one request in flight. Every operation returns false
// synchronously when it cannot be dispatched (missing callback, invalid
// parameters, or another request outstanding); otherwise it returns true and
// the callback later receives exactly one Result.
//
//	svc := account.NewService(cfg.Account, account.WithLogger(logger))
//
//	svc.Login(account.LoginParams{
//		Username: "ada",
//		Password: "secret",
//		Callback: func(r account.Result) {
//			if !r.OK {
//				log.Println(r.Reason)
//				return
//			}
//			log.Println("welcome", r.Data["username"])
//		},
//	})
//
// Requests are form-encoded POSTs to ServerURL + endpoint with "game" (and,
// for login and link, "ref") appended. Responses wrapped as {"data": {...}}
// are unwrapped. Failures carry a Reason taken from data.message when the
// backend sent one, else one of the Reason constants, and an Err coded with
// pkg/errors (TRANSPORT_ERROR, BACKEND_ERROR or CONFIGURATION_ERROR).
//
// The gate is reopened before the callback runs, so a callback may issue the
// next request directly.
package account
