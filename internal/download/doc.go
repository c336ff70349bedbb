// Package download transfers episode media and schedules transfers across a
// bounded worker pool.
//
// The Client fetches one episode to a uniquely named partial file and moves
// it into place only on full success, so an interrupted transfer never
// leaves a truncated file under the final name. The Pool keeps at most the
// configured number of transfers in flight, isolates per-episode failures,
// and reports a Summary the orchestrator aggregates per podcast.
package download
