// Package satchel carries module-level metadata shared by the CLI and build
// tooling.
package satchel

// Version is the released module version.
const Version = "0.1.0"
