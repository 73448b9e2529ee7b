// Package assistants binds the Assistants API operations this module needs
// and resolves an assistant by name.
//
// Resolution is create-or-reuse: the first assistant in the listing whose name
// matches exactly is reused as-is, otherwise one is created. Listing-then-creating
// races with other processes; when reconciliation is on, a fresh create is
// followed by a second listing and duplicates converge on the oldest assistant.
package assistants
