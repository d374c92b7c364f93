// Package build runs a complete book build: it loads the initial metadata,
// declares the referenced repositories, expands the root document once per
// language and writes the documents, label tables, resources, manifest and
// website to the output directory.
//
// The CLI and the watch loop both route through Service.
package build
