// Package types defines the Store interface, the collection schema, the typed
// records held by each collection, the backup snapshot and the standard errors
// for the Keepsake local store.
package types
