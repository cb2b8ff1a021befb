package domain

import "time"

// RemoteAsset is the core's view of one asset in the target photo library.
// The remote API's shape is not contractually stable, so adapters read the
// fields defensively and present this normalized form.
type RemoteAsset struct {
	// ID is the remote asset identifier.
	ID string

	// FileName is the base name used for matching: originalFileName when
	// present, otherwise the stem of originalPath.
	FileName string

	// FileCreatedAt is the remote capture timestamp, nil when absent.
	FileCreatedAt *time.Time

	// Latitude/Longitude are the remote coordinates, nil when the asset
	// reports none.
	Latitude  *float64
	Longitude *float64
}

// AssetUpdate is the repair payload submitted to the remote library.
// Coordinates are only included when the expected location is valid, so a
// repair can never poison an asset with the (0,0) sentinel.
type AssetUpdate struct {
	FileCreatedAt string
	Latitude      *float64
	Longitude     *float64
}
