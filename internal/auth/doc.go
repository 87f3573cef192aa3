// Package auth handles the bearer tokens carried by answer requests.
//
// Tokens are HS256 JWTs. The "sub" claim is the user id the answer stream
// is opened for:
//
//	v, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
//	tok, err := v.Generate("alice", 24*time.Hour)
//
// On the server side, Middleware verifies the Authorization header and
// stores the subject in the request context (see SubjectFrom). Requests
// without a valid token get 401, which the client treats as a transport
// failure.
//
// On the client side, LoadToken resolves the token from config, then
// $BLOOP_TOKEN, then the configured token file.
package auth
