// Package memory persists a finished session locally.
//
// Persistence model:
//   - One JSON file per session: the assistant, thread and run ids, the run's
//     final status and the thread transcript as role + text, oldest first.
//   - Non-text message parts are dropped.
package memory
