// Package middleware wraps session stores with cross-cutting behavior.
//
// The encryption middleware seals snapshots at rest so journaled answers never
// reach disk or Redis in clear text:
//
//	seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
//	store := middleware.Chain(file.NewStore(dir), seal)
package middleware
