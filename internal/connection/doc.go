// Package connection implements the upstream WebSocket transport.
//
// A Client is one WebSocket connection: it dials, answers server pings,
// sends its own keepalive pings, and reports a stale connection when
// nothing has been heard for PingTimeout.
//
// A FeedConn keeps one feed connected:
//   - Runs the state machine Disconnected -> Connecting -> Connected -> Reconnecting -> Connecting ...
//   - Sends the feed's subscribe frame after every successful dial
//   - Waits ReconnectDelay between attempts, doubling up to ReconnectMaxDelay
//   - Forwards every frame, tagged with the feed name, to a shared channel
package connection
