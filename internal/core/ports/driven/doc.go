// Package driven defines the outbound ports the core services depend on:
// export normalisers, the bundle store, the media fetcher, the metadata
// taggers, the remote photo-library client, and the job/progress stores.
// Adapters implement these interfaces; the core never imports an adapter.
package driven
