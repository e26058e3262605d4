// Package revocation tracks explicitly invalidated credentials. It answers
// "has this credential been revoked?" in O(1) amortized time, safely under
// concurrent writers.
//
// Entries are keyed by a SHA-256 digest of the credential (token string for
// access tokens, token ID for refresh tokens) so raw token material never
// lands in backend keyspaces. Absence of an entry is not proof of validity:
// expiry checks in the token codec still apply.
package revocation
