// Package git fetches repository snapshots and inspects local checkouts.
//
// The package handles:
//   - Shallow cloning with authentication (token, basic, SSH key)
//   - Retry with backoff for transient clone failures
//   - Typed errors for structured error handling
//   - Detecting the checkout a file lives in (root, origin, HEAD commit)
//   - Turning remote URLs into browsable base URLs and blob links
package git
