// Package memento captures and restores versions of a value.
//
// An Owner holds one live state value. Save copies that state into an opaque
// Snapshot whose payload only the same Owner can read back through Restore;
// every other caller sees the snapshot's Meta (id, creation time and a short
// label) and nothing else. Snapshots never alias the live state: mutating one
// does not affect the other.
//
// Keeping an ordered history of snapshots and rolling back through it is the
// job of github.com/goliatone/go-memento/pkg/history, which works against the
// Owner only through its Save and Restore methods.
//
// Restore fails with a *RestoreError (kinds: incompatible, rejected, invalid)
// and leaves the live state untouched. Restore guards, configured with
// WithRestoreGuard, are boolean expressions evaluated against the candidate
// state with the expr engine by default, or with CEL or goja (js_eval build
// tag) through WithGuardEvaluator.
package memento
