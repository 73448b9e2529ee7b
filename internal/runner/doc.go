// Package runner submits runs and waits for them to finish.
//
// Invariant:
//   - a run is only re-fetched after it was created and while its status is
//     queued or in_progress; any other status is terminal and ends the wait.
//
// Success and failure are not distinguished while waiting: a failed, cancelled
// or expired run is returned like a completed one. Use Succeeded to tell them apart.
//
// Flow:
//
//	create(run) -> [sleep -> retrieve(run)]* -> terminal run
package runner
