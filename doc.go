// Package identity provides stateless authentication primitives for an
// identity service: bcrypt credential hashing, JWT issuance and validation,
// a bearer-token authorization gate, and the account flows built on top of
// them (registration, login, and an email-mediated password reset).
//
// Password reset:
//   - The reset flow is a stateless challenge/response state machine. The
//     server keeps no reset session; a signed token is the only carrier of
//     state between steps. RequestPasswordReset embeds a bcrypt hash of a
//     one-time numeric code inside the token and mails the plaintext code to
//     the account owner. VerifyResetCode checks the submitted code against
//     the embedded hash and exchanges the token for a narrower one that can
//     only finalize the password change.
//
// Tokens:
//   - Tokens are HS256 JWTs with a uid claim and, for the challenge step, a
//     code claim holding the hashed reset code. There is no server-side
//     revocation; a token stays valid until its embedded expiry. Session and
//     reset tokens carry separate TTLs so the reset window can be kept short.
//
// Collaborators:
//   - UserStore persists user records (a Bun-backed implementation ships in
//     this package) and NotificationGateway delivers reset codes. Both are
//     small interfaces so callers can swap in their own implementations.
package identity
