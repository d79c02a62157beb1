// Package auth performs the login exchange with the remote authority and
// owns every transition of the session state.
//
// Gateway is the only writer of session.Store. Login posts credentials to
// the login endpoint over the raw transport and stores the resulting
// session; Logout clears it. Terminate is the reaction to an
// authentication failure reported by the response interceptor: it clears
// the session the failing call was dispatched under and sends the user to
// the login entry point through the injected Navigator, at most once per
// session revision.
package auth
