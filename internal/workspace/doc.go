// Package workspace manages the directory that referenced repositories are
// cloned into.
//
// Ephemeral mode creates a timestamped directory (e.g. bookbuilder-20251214-122336)
// that is removed once the build is done.
//
// Persistent mode uses a fixed directory that survives builds, so repeated
// builds of the same book reuse the location.
package workspace
