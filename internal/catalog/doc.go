// Package catalog holds the HTTP plumbing shared by the MyAnimeList (Jikan)
// and AniList clients.
//
// Transport paces requests with a token bucket limiter, retries rate limited
// and server error responses with backoff that honours Retry-After, reports
// other failures as *HTTPError, and consults an optional response Cache so
// repeated lookups within the cache lifetime never reach the network.
package catalog
