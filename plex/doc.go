// Package plex provides a client for the Plex Media Server HTTP API.
//
// The client answers the questions the agent asks before downloading
// anything: does the library already hold this album, track or movie. It
// also triggers partial library scans once downloads finish.
//
// # Usage
//
//	client, err := plex.NewClient(
//		"http://plex.lan:32400",
//		token,
//		logger,
//		plex.WithClientIdentity("cratedigger", "cratedigger"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	albums, err := client.FindAlbums(ctx, "Radiohead", "OK Computer")
//
//	// After a download completes
//	err = client.ScanPath(ctx, "artist", "/data/Music/Radiohead - OK Computer")
//
// # Error Handling
//
//   - ErrInvalidConfig: missing URL or token
//   - ErrUnauthorized: the token was rejected (matched through APIError)
//   - ErrSectionNotFound: no library section of the requested type
//   - APIError: any other non-200 response
package plex
