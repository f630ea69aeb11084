// Package auth issues and verifies console access tokens.
//
// Passwords are hashed with bcrypt. Access tokens are HS256 JWTs carrying the
// user ID (sub), role, issue and expiry times. Logged-out tokens are kept in a
// revocation set until they would have expired anyway.
package auth
