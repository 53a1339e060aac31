// Package recent keeps the registry of recently opened projects.
//
// Each record is stored as a CBOR value in the "recent-projects" bucket of a
// store.Store:
//
//	{id: string, name: string, directory: <capability blob>, lastOpened: <ms since epoch>}
//
// The registry outlives any access grant. A restored record's directory must
// go through the capability broker again before it can be used.
package recent
