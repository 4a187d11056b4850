// Package session persists per-identity assistant state: the Google
// credential obtained through the authorization handoff and the id of the
// last event the assistant created for that identity.
//
// Store has four backends selected by configuration: an in-process map
// (memory), a local SQLite file migrated with goose (sqlite), a Valkey hash
// per identity (valkey) and a Firestore document per identity (firestore).
// All writes are merge-style: saving one field never clears another.
//
// When an encryption key is configured, Open wraps the backend so
// credentials are sealed with AES-256-GCM before they reach storage.
package session
