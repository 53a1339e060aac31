// Package project binds the workflow configuration to a directory on disk.
//
// Manager is the single owner of the active project. It moves through
// Closed, Opening, Open and Saving, and every transition is serialized:
//
//	Closed --select/openRecent--> Opening --load ok / missing / malformed--> Open
//	Opening --access denied or I/O error--> previous state
//	Open --save--> Saving --> Open
//	Open --close--> Closed
//
// All file access goes through capability.Broker, so the Manager never
// touches a directory it has no grant for. Failures are returned as errors
// from the taxonomy in errors.go; events the user should see even when the
// operation succeeded (a new project, a malformed file replaced by defaults,
// a registry that could not be updated) are also sent to the Notifier.
package project
