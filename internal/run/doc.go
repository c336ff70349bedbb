// Package run drives one podfetch run: fetch every enabled feed, reconcile
// against history, and hand pending episodes to the download pool.
//
// Failure domains are kept small. A malformed rule or unreachable feed
// disables only its own podcast for the run; a failed transfer costs only
// that episode. Everything is aggregated into per-podcast reports for the
// CLI to render.
package run
