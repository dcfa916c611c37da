// Package otp generates one-time codes that are delivered out of band (for
// example by email) and typed back by the user.
//
// Codes come from crypto/rand and are uniformly distributed over the full
// fixed-width numeric range, so a 6-digit code is one of 900000 values.
package otp
