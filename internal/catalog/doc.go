// Package catalog turns fetched feed entries into the episode work list for
// one run. It resolves local filenames (substitution rule or URL basename),
// de-duplicates by identity key, and splits entries into already-downloaded
// and still-pending sets against the persisted history.
//
// Episodes are identified by (podcast, source URL), never by filename, so
// editing a podcast's rule does not re-download episodes fetched under an
// older name.
package catalog
