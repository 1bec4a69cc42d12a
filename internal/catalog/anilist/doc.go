// Package anilist is a small client for the AniList GraphQL API.
//
// A single fixed query document is used for both text search and lookup by
// MyAnimeList id; the variables select which filter applies.
package anilist
