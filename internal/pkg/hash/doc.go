// Package hash provides helpers for hashing and verifying short-lived secrets.
//
// One-time codes and session identifiers are never kept in plaintext: store
// the digest, then verify user input by comparing it against the stored value.
package hash
