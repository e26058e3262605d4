// Package token implements the stateless codec for signed access and refresh
// tokens. It owns claim layout, signing, and verification; it holds no mutable
// state and is safe for concurrent use by construction.
package token
