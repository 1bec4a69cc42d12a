// Package title turns raw library folder names into catalog search queries.
//
// A folder name such as "Cowboy Bebop (1998) [BD]" carries a display title,
// an optional release year hint, and possibly an explicit MyAnimeList id tag
// ("[malid-1]"). Normalize separates those parts; Clean produces the text used
// both for searching and for comparing candidate titles.
package title
