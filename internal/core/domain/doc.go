// Package domain contains the core business entities for the Snapchat
// Memories migration: the canonical MemoryRecord produced by normalisation,
// the MetadataBundle interchange artifact shared between phases, and the
// RemoteAsset view of the target photo library.
//
// The domain layer has no dependencies on adapters or external services.
package domain
