// Package auth implements credential verification and session management
// for the admin dashboard.
//
// Credentials are static, loaded from the environment at startup. A
// stored password may be a bcrypt hash or plaintext; the plaintext
// comparison is a legacy fallback kept for development setups and is not
// a recommendation. Sessions are held in process memory with a sliding
// inactivity timeout.
package auth
