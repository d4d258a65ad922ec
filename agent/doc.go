// Package agent runs the tool-calling loop that turns a free-form request
// into torrent searches, library checks and downloads.
//
// A Session holds the per-run state shared by every tool: results returned by
// searches, the torrents already dispatched, and the qBittorrent tag used to
// find them again once they finish.
package agent
