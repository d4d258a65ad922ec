// Package qbittorrent provides a client for the qBittorrent Web API.
//
// Login, torrent submission and torrent listing go through the
// autobrr/go-qbittorrent library. The search plugin endpoints, which that
// library does not expose, are driven by a separate cookie session.
//
// # Features
//
//   - Connection management with authentication
//   - Search plugin queries with status polling and a hard timeout
//   - Torrent submission with save path, category and tags (dry-run aware)
//   - Multi-client pools with concurrent, de-duplicated searches
//   - Fuzzy resolution of loosely typed release names
//   - Waiting on tagged torrents until they finish downloading
//
// # Usage
//
//	client, err := qbittorrent.NewClient(ctx, qbittorrent.Config{
//	    Name: "home",
//	    URL:  "http://localhost:8080",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	pool, err := qbittorrent.NewPool([]*qbittorrent.Client{client}, logger)
//	results, err := pool.Search(ctx, "Radiohead OK Computer")
//
//	match, ok := qbittorrent.MatchName("ok computer", names)
//	if ok && match.Score >= qbittorrent.MinMatchScore {
//	    // dispatch match.Name
//	}
package qbittorrent
