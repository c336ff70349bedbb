// Command podfetch downloads podcast episodes.
//
// It refreshes configured RSS feeds, derives local filenames from enclosure
// URLs via per-podcast substitution rules, and downloads missing episodes
// with bounded parallelism. Episode history lives in SQLite so completed
// downloads are never repeated.
package main
