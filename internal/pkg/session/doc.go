// Package session carries server-side session identifiers between the HTTP
// boundary and the application.
//
// It includes:
//   - A Codec that signs session ids into cookie values and verifies them back.
//   - Context helpers for storing and retrieving the verified session id.
package session
