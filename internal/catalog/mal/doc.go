// Package mal is a small client for the Jikan REST API, an unofficial
// read-only mirror of MyAnimeList.
//
// Only the two endpoints needed for enrichment are covered: anime search by
// text and anime lookup by MyAnimeList id.
package mal
