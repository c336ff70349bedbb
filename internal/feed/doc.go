// Package feed retrieves podcast RSS/Atom feeds and flattens them into the
// enclosure entries the rest of the pipeline consumes. Entries keep the
// feed's native order; items without an enclosure are dropped.
package feed
