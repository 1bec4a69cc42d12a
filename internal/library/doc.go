// Package library discovers title folders under the configured library roots
// and prunes records whose folders have disappeared.
//
// A root is either an existing directory, whose entries are titles, or a
// doublestar glob pattern whose matching directories are listed the same way.
// The folder name is the title key and is never rewritten.
package library
