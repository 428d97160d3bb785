// Package password implements the credential hashing capability with
// argon2id. Hashes are encoded as PHC strings, so salt and cost parameters
// travel inside the hash and verification needs no external state.
package password
