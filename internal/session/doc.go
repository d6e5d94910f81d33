// Package session keeps short-lived per-session conversation state.
//
// Each session holds a bounded history of question/answer exchanges plus
// the IDs of recently ingested documents, used to bias retrieval toward
// what the user just uploaded. State expires after a TTL that is refreshed
// on every read and write, so active conversations never expire mid-flight.
//
// The Redis implementation is the production path; an in-process
// implementation with lazy expiry backs tests and single-node deployments.
package session
