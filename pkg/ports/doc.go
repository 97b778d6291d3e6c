/*
Package ports defines the driven ports (interfaces) of the wizard engine.

These interfaces decouple navigation from external implementations, allowing
the engine to read descriptions from any backend and persist sessions anywhere.

# Key Interfaces

  - ConfigSource: turns a path into a parsed description (Loam, filesystem, memory).
  - SessionStore: persists and loads session snapshots.
  - DistributedLocker: provides distributed locking for concurrent session access.
*/
package ports
