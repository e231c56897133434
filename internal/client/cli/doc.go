// Package cli provides the interactive GlassHabit command-line client.
//
// App wraps a services.Session and drives it from a read-eval-print loop:
// account commands (register, login, recover, ...), habit tracking (addtask,
// done), to-dos, expenses, journal entries, and backup export/import.
//
// The signed-in profile is kept current through the session's auth-state
// subscription, so a session restored at startup is picked up without an
// explicit login. The REPL is started via App.Run, which blocks until the
// user exits or input ends.
package cli
