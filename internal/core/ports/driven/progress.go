package driven

// ProgressEvent is one structured progress notification, emitted once per
// processed item. The sequence is finite and monotonic in Percent. It is a
// side channel: ignoring every event changes no outcome.
type ProgressEvent struct {
	// Phase names the running phase (extract, download, process, upload, repair).
	Phase string

	// Item is the record or asset the event concerns.
	Item string

	// Index is the 1-based position and Total the batch size.
	Index int
	Total int

	// Percent is the monotonic progress fraction, 0-100.
	Percent float64

	// Status classifies the item outcome (ok, skipped, failed, repaired,
	// would-repair, duplicate).
	Status string

	// Message is the human-readable per-item log line.
	Message string
}

// ProgressSink receives progress events. Implementations must not block
// the producing loop for long; the core calls Emit synchronously between
// items.
type ProgressSink interface {
	Emit(event ProgressEvent)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Emit(ProgressEvent) {}
