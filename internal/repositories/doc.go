// Package repositories implements SQLite persistence for client state.
//
// Key Implementations:
//   - [StorageRepository] : durable key/value storage for the credential, imported reels and the current selection
//   - [MemoryStore] : in-process [KeyValueStore] for tests and throwaway sessions
//   - [CredentialStore] : typed access to the credential kept under [KeyToken]
//   - [JobRepository] : local history of submitted transformation jobs
//
// Job records are soft deleted via deleted_at and excluded from queries by default.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
