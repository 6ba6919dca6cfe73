// Package origin fetches resource content from an origin server.
//
// The origin lays resources out as
//
//	{baseURL}/{plugin key}/{module key}/{resource name}
//
// which is the same layout webresource.FSSource reads from disk, so a
// directory published by a static file server can back either source.
//
// # Usage
//
//	client := origin.NewClient("https://cdn.example.com/resources")
//	match, _ := manager.ResolveRequest(r.URL.Path, r.URL.RawQuery)
//	err := manager.WriteMatch(ctx, w, match, client)
//
// Fetched content is cached in memory by module and resource name. Use
// ClearCache after a deploy replaces the origin's content.
package origin
