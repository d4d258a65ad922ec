package history

import "time"

// Record is a single dispatched torrent
type Record struct {
	ID        int64
	Query     string
	Name      string
	URL       string
	InfoHash  string
	Client    string
	Category  string
	Tag       string
	DryRun    bool
	CreatedAt time.Time
}
