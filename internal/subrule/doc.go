// Package subrule parses and applies sed-style substitution rules used to
// derive local filenames from enclosure URLs.
//
// A rule has the shape s<D><pattern><D><replacement><D><flags>, where <D> is
// any single character that is not whitespace, alphanumeric, or a backslash.
// The pattern is a regular expression compiled with the standard regexp
// package; the replacement may reference capture groups with \1 through \9.
// Occurrences of the delimiter inside the pattern or replacement must be
// escaped with a backslash.
//
// Rules are validated fully at parse time. Apply never fails: a candidate
// string that does not match the pattern is returned unchanged so a single
// odd URL cannot abort a whole feed.
package subrule
