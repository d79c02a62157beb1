// Package session holds the credential state of the logged-in principal.
//
// Store keeps an in-memory snapshot of the current session in front of a
// durable storage.KVEngine. Reads are served from the snapshot and never
// touch the medium; writes persist the credential and identity slots in one
// engine batch before the snapshot is swapped, so no reader can observe a
// half-written session.
//
// Every committed change bumps the snapshot revision. Callers that act on a
// session asynchronously (the 401 termination sequence) carry the revision
// they observed and use ClearRevision so they never tear down a session that
// replaced the one they saw.
package session
