// Package job defines the tracked unit of asynchronous upload processing:
// the job record, its status machine, the in-memory store, and the factory
// that mints new records.
//
// A job moves through exactly one path:
//
//	pending → processing → completed | failed
//
// Transitions are one-directional. The factory performs the single write at
// creation; the processing pipeline performs the remaining writes. Readers
// may observe any stored state depending on timing.
package job
