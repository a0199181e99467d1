// Package pg is the administrative Postgres gateway: it connects to the
// maintenance database and creates, drops, and enumerates the per-branch
// databases.
//
// It deliberately owns no policy. Protecting the active database, asking
// for confirmation, and deciding what counts as an orphan all live in the
// command layer; this package only executes.
package pg
