// Package mail sends transactional email such as one-time sign-in codes.
//
// Callers build a Message and hand it to a Mail implementation: SMTP for real
// delivery, Log for local development where codes only need to show up in
// the service log.
package mail
