// Package attack simulates adversarial edits against a watermarked graph.
//
// Deletion and modification runs are loops driven by an explicit state
// machine: every iteration first checks the context, then the verification
// oracle, then pool exhaustion, and only then perturbs the store. Insertion
// runs unconditionally, and fast deletion samples without touching the store.
// Every run appends exactly one summary record to the session results sink.
package attack
