// Package file persists namespaces as one YAML document per principal.
//
// Each save writes a temporary file, syncs it, renames it over the previous
// snapshot and syncs the directory, so a crash leaves either the old or the
// new snapshot on disk.
package file
