// Package auth obtains Microsoft Graph access tokens for a single CLI run.
//
// An Acquirer first tries to redeem the persisted refresh token. When no
// token is stored or the identity provider rejects it, the Acquirer opens a
// Listener on the loopback redirect URL, sends the user's browser to the
// authorization endpoint and waits for the one redirect that carries the
// authorization code. The code is exchanged with the same redirect URL and
// the refresh token from the response replaces the persisted one.
//
// The Listener is single use: it answers exactly one request on its
// redirect path and then shuts itself down. Its result travels over a
// one-slot channel, so Wait never races with the handler.
package auth
