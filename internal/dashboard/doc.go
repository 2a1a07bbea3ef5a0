// Package dashboard owns the process-wide dashboard state and its update cycle.
//
// A Dashboard holds one Pipeline per feed (adapter counters plus model
// store), the current selection, and the presenter. A single dispatch loop
// (Run) consumes tagged frames from every feed connection, selection
// commands and clock ticks. Each frame runs one cycle to completion:
// classify, apply to the store, render if the selected instrument changed,
// publish to the Sink.
package dashboard
