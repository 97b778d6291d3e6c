// Package http serves wizard sessions over a JSON API with chi.
//
// Every session endpoint answers with the current prompt, or with the
// collected entries once the session was submitted. Server-sent events are
// available per session and, when a watch function is configured, for
// description changes.
package http
