// Package clock supplies the current time to code that makes expiry decisions,
// such as OTP windows and session lifetimes, so tests can pin it with Fixed.
package clock
