// Package devbackend is an in-memory implementation of the backend account API
// consumed by package account. It exists for local development and tests.
//
// All requests are form-encoded POSTs. Responses are JSON wrapped as
// {"data": ...}; failures add "result": "fail" and carry data.message.
//
//	POST /auth/register            username, password, email
//	POST /auth/login               username, password (sets the session cookie)
//	POST /auth/logout              clears the session cookie
//	POST /auth/{provider}/connect  type, id, fullRes (finds, links or creates an account)
//	POST /users/me                 current account (session required)
//
// Sessions are HS256 JWTs in the "jwt" cookie, signed with golang-jwt and
// verified by jwtauth.
//
//	repo := devbackend.NewInMemoryRepository()
//	h := devbackend.NewHandler(devbackend.NewService(repo), []byte(secret))
//	r.Mount("/v1", h.Routes())
package devbackend
