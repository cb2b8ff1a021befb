// Package services implements the core phase logic: extraction, identity
// derivation, the multi-key lookup index, bulk download, post-processing,
// upload, and remote metadata reconciliation. Services depend only on the
// driven ports and are pure with respect to ambient state: everything they
// touch is injected.
package services
