// Package config loads, normalizes, and validates animedb configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// overrides such as ANIMEDB_DATA_DIR and ANIMEDB_LIBRARY_ROOTS. The Config
// type also derives the store, lock, and cache locations so every command
// agrees on where data lives.
package config
