// Package store keeps websites, their saved forms and collected leads.
//
// The Store is an in-memory repository guarded by a single RWMutex. Reads
// return copies, so callers can never mutate stored records in place.
// Replacing a website's forms happens under one write lock, so readers see
// either the old set or the new one, never a mix.
//
// When a snapshot path is configured every mutation is followed by a full
// JSON snapshot, written to a temporary file and renamed into place. The
// snapshot is loaded back by Open.
package store
