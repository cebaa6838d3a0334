// Package file persists onair state that users may read or edit by hand:
// config.toml, the monitor prompt templates and the per-channel segment
// sequence files.
package file
