package zipkit

// ProgressEvent represents a progress update during entry payload streaming.
// Bytes counts uncompressed payload bytes consumed so far; an event is
// emitted after each chunk is durably written to the destination.
type ProgressEvent struct {
	Path  string
	Bytes uint64
	Total uint64
}

// ProgressFunc receives progress updates during AddEntry. It is called from
// the mutating goroutine; implementations should return quickly.
type ProgressFunc func(ProgressEvent)
