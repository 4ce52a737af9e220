// Package auth implements the session lifecycle core: signed access and
// refresh tokens, refresh rotation with fail-closed reuse detection, and
// version-based global invalidation.
//
// The package is transport-free. HTTP concerns (bearer extraction, the
// refresh cookie, wire error codes on responses) live in internal/httpapi;
// auth exposes [Engine], [Issuer], [SessionCache] and the classified error
// values the adapters map onto the wire.
//
// Shared mutable state is confined to the session cache and the user store.
// Rotation correctness holds across replicas because the compare-and-swap on
// the cached refresh token is the unit of consistency, not any in-process
// lock.
package auth
