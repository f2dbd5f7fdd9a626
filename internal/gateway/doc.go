// Package gateway defines the contract the synchronization engine requires
// from the remote review queue service, plus its HTTP implementation.
//
// Errors returned by a Client are tagged with sentinel markers so callers can
// distinguish recoverable transport failures (which drive the offline replay
// path) from terminal remote rejections (server state wins) and request
// validation problems.
package gateway
