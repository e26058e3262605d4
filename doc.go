// Package goTenantAuth provides a session and tenant token authority for
// multi-tenant services: signed JWT access tokens, rotating refresh tokens,
// revocation tracking, session persistence with expiry, and request-time
// tenant-isolation enforcement.
//
// The package is designed for concurrent server workloads: Authority methods
// are safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goTenantAuth is the public surface. It exposes [Authority], [Builder],
// [Config], [TenantGuard], and value types (LoginResult, Claims,
// MetricsSnapshot, ...). Token encoding lives in the token package, store
// backends in session and revocation, and internal coordination (audit
// dispatch, metric storage) under internal/.
//
// # What this package must NOT do
//
//   - Expose Redis clients or store encoding details in its public API.
//   - Define a wire protocol; the consuming HTTP layer owns status mapping.
//   - Log raw token strings anywhere, including audit events.
//
// # Performance contract
//
// Validate is the hot path: one codec parse plus one revocation lookup. Login,
// Rotate, and Logout are allowed one store round-trip per touched store.
package goTenantAuth
