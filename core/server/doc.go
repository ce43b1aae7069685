// Package server holds the HTTP server configuration.
//
// The cmd package owns the Fiber application lifecycle; this package only
// defines the settings it needs (listen port, API key, rate limiting and the
// upload size cap for snapshot documents) so core/config can embed them.
package server
