// Package federation links an identity provider login to a backend account.
//
// Orchestrator.Login runs four steps, each short-circuiting on failure:
//
//  1. LoginApproved on the provider; if accessible, go to step 3
//  2. Login on the provider; not accessible fails with "not logged into provider"
//  3. Me on the provider; not dispatchable fails with "error retrieving profile"
//  4. LinkExternalAccount on the account service; its Result is passed through
//
// If step 4 is rejected because another backend request is in flight the
// handshake fails with "account service busy". Nothing is retried.
//
//	orch := federation.New(fb, accounts)
//	orch.Login(federation.Params{
//		Options: provider.LoginOptions{Scope: []string{"email"}},
//		Fields:  []string{"id", "name", "email"},
//		Callback: func(r account.Result) { ... },
//	})
package federation
