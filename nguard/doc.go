// Package nguard provides ready-made authenticators and validators
// for nroute: JWT bearer tokens, struct-tag validation, and account
// registration rules.
package nguard
