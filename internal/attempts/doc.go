// Package attempts tracks recent failed authentication attempts per identity
// in a sliding time window.
//
// # Design
//
// Records live in a fixed set of shards selected by an FNV-1a hash of the
// identity, each shard guarded by its own mutex. Mutations on one identity
// serialize; identities in different shards never contend. Timestamps older
// than the window are pruned lazily on every check, so there is no
// background sweeper and no timer state.
//
// # Architecture boundaries
//
// This package owns only the window bookkeeping. It takes the current time
// as an argument on every call so the caller's clock stays authoritative,
// and it never performs I/O. State is process-local and lost on restart.
package attempts
