// Package types defines the Satchel domain entities, the repository and
// preferences interfaces the engine consumes, and the standard errors shared
// across layers.
//
// Entities are plain structs. The engine never mutates an entity it has
// already handed out; every change produces a fresh copy so that held
// references stay consistent snapshots.
package types
