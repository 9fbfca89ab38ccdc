// Package auth holds the credential and request hardening pieces of the API.
//
// Passwords of students and teachers are stored as bcrypt hashes. Login
// endpoints only verify credentials and return the borrower identity; there
// are no sessions, and every lending call names its borrower explicitly.
//
// Login routes are throttled per client IP and email:
//
//	AUTH_MAX_LOGIN_ATTEMPTS=5
//	AUTH_RATE_LIMIT_WINDOW=15m
//	AUTH_LOCKOUT_DURATION=30m
//
// Every response carries the headers set by SecurityHeadersMiddleware.
package auth
