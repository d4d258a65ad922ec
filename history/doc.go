// Package history records every torrent the agent dispatches in a local
// SQLite database, so later runs can tell what was already fetched.
package history
