// Package tokenstore persists the OAuth refresh token between runs.
//
// Exactly one refresh token is kept. Saving replaces the previous value,
// and an empty or missing store reads as ErrNotFound. Two backends exist:
// FileStore keeps the token in a plain-text file, KeyringStore keeps it in
// the operating system's credential store.
package tokenstore
