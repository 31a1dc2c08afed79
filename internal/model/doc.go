// Package model defines the shared data types for the token alert pipeline:
// normalized token events, filter and signal configuration snapshots, and
// tracked-token state.
package model
