// Package server is the browser-facing presentation sink.
//
// It serves a gin HTTP API and a WebSocket push channel:
//   - GET /ws: JSON frames {"type","feed","payload"}; accepts {"command":"select","instrument":...}
//   - GET /api/health, /api/metrics: liveness, feed states and counters
//   - GET /api/instruments, /api/views: store snapshots and rendered views
//   - GET and PUT /api/selection: read or change the selected instrument
//
// The Hub implements dashboard.Sink. It keeps the latest frame of every
// display region so a newly connected browser is brought up to date at once.
package server
