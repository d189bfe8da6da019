// Package live implements the duplex streaming session engine shared by the
// SDK's live transcription and live synthesis surfaces.
//
// A session is one WebSocket connection owned by a single worker goroutine.
// The worker multiplexes inbound frames, outbound audio/control items, and an
// optional keepalive timer; callers interact with it only through a Handle
// backed by bounded channels. The outbound channel has capacity 1, so a fast
// producer blocks instead of buffering unboundedly; the event channel has
// capacity 256 to absorb bursts of incremental results.
package live
