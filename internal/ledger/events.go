package ledger

// MultiSink fans a transition event out to several sinks.
type MultiSink []EventSink

// TransitionRecorded implements EventSink.
func (m MultiSink) TransitionRecorded(entry *TransitionEntry) {
	for _, sink := range m {
		sink.TransitionRecorded(entry)
	}
}
