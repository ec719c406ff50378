// Package history keeps an ordered, strictly linear stack of snapshots for a
// single originator and rolls it back on request.
//
// History depends on the originator only through Save and Restore, and on
// snapshots only through their metadata. It lives in its own package so it
// cannot reach a memento.Snapshot payload even by accident.
//
// Undo pops the newest snapshot and asks the originator to restore it. When
// the originator refuses with a *memento.RestoreError the snapshot is
// discarded and the next older one is tried, until a restore succeeds or the
// stack is empty (ErrNoHistory). The loop is iterative and runs at most once
// per stacked snapshot.
package history
