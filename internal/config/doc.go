// Package config loads, normalizes, and validates keepsake's TOML
// configuration. Path fields are expanded (including ~) and resolved to
// absolute paths during Load; relative catalog, manifest, and log locations
// are anchored under the archive directory.
package config
