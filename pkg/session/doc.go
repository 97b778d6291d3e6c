/*
Package session implements session management and persistence orchestration.

A Session walks one wizard: it holds the current node, applies output, input
and back through the engine, and journals every state-changing step. The
Manager keeps live sessions in memory, serializes access per session (with an
optional distributed lock across replicas), and restores a session that is not
in memory by replaying its stored journal against a freshly built tree.
*/
package session
