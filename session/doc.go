// Package session provides session persistence with fixed-TTL expiration and
// atomic token-pair replacement. Two backends implement the same [Store]
// contract: an in-process mutex-guarded map for tests and single-instance
// deployments, and a Redis store for multi-instance deployments.
//
// # Encoding
//
// Sessions are stored in Redis as schema-versioned JSON blobs so the Lua
// compare-and-swap scripts can inspect them with cjson. The encoder is
// append-only: new schema versions add fields but never reinterpret old ones.
//
// # Architecture boundaries
//
// This package owns the [Session] model and its persistence. It does NOT
// interpret tokens, talk to the revocation store, or enforce tenant policy;
// those responsibilities belong to the Authority.
package session
