// Package textutil provides text folding, fuzzy similarity, and filename
// sanitization helpers.
//
// Ratio scores two titles on a 0-100 scale. Both inputs are folded first
// (lowercased, accents stripped, punctuation collapsed). The result is the
// best of a plain Levenshtein ratio, a token-sorted ratio, and, when one title
// is much longer than the other, a slightly discounted partial ratio that
// aligns the shorter title against every window of the longer one. "Bebop
// Cowboy" and "Cowboy Bebop" compare as equal and "Naruto" scores well against
// "Naruto Shippuden".
package textutil
