// Package password provides one-way password hashing for RoadReady.
//
// Hashing uses bcrypt with a configurable cost. Verification relies on
// bcrypt's own constant-time comparison. Policy checks (length bounds)
// run before any hashing work is done.
package password
