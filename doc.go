// Package accountkit implements the account identity lifecycle: signup with
// email-ownership verification, single-use expiring verification tokens,
// credential login with per-identity failure throttling, and resend of
// verification links.
//
// The package is an embeddable engine, not a transport layer. Callers wire
// an [AccountRepository], a [Notifier], and signing material through the
// [Builder] and map the returned results and error kinds onto whatever
// protocol they expose.
//
// # Lifecycle
//
// Accounts are created in StatusPendingVerification with a live verification
// token and an expiry. A successful [Engine.VerifyEmail] moves the account to
// StatusVerified exactly once and clears the token; there is no path back.
// Signup against a pending account and [Engine.ResendVerification] replace
// the token, permanently invalidating the previous one.
//
// Notification delivery is a side effect: a failing [Notifier] is recorded in
// the audit stream but never rolls back or surfaces through a lifecycle
// operation.
package accountkit
