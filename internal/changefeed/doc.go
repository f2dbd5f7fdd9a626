// Package changefeed subscribes to the push channel of remote queue mutations
// and forwards normalized events into the synchronization engine.
//
// The listener is a thin adapter over a redis pub/sub channel. It drops
// events originating from this client, decodes the rest into Event values,
// and delivers them to a single consumer goroutine. On connection drop it
// resubscribes automatically; while disconnected the engine keeps operating
// on local state. Delivery ordering across items is not guaranteed and the
// engine's merge rule does not assume it.
package changefeed
