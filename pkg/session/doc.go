// Package session models signed-in and guest sessions and persists them.
//
// PersistedManager keeps sessions in memory and writes every change through a
// Store. The first accessor call restores state from the store exactly once.
// One session at a time may be active; SetSession only promotes a session when
// nothing is active or the active session shares its id, while
// SetActiveSession always promotes.
//
// Stores: MemoryStore for tests and ephemeral hosts, FileStore for a single
// JSON file; the redis, pg and mongo packages provide shared backends.
package session
