// Package runner provides the interactive loop that walks a session from its
// entry node to submission over text or JSON-Lines IO.
//
// The words "back", "exit" and "quit" are reserved: back steps one answer
// backwards, exit and quit stop the loop with io.EOF.
package runner
