package eventing

// EventSource is the uncommitted-event buffer embedded in aggregate roots.
// Mutating aggregate operations call Raise; the transactional wrapper calls
// DrainEvents exactly once per unit of work, transferring ownership of the
// buffered events to the outbox.
type EventSource struct {
	events []Event
}

// Raise appends an event to the uncommitted buffer.
func (s *EventSource) Raise(event Event) {
	s.events = append(s.events, event)
}

// DrainEvents returns the buffered events in the order they were raised and
// clears the buffer.
func (s *EventSource) DrainEvents() []Event {
	events := s.events
	s.events = nil
	return events
}

// HasEvents reports whether the buffer holds undrained events.
func (s *EventSource) HasEvents() bool {
	return len(s.events) > 0
}

// Drainer is the slice of an aggregate root the unit of work needs: the
// ability to hand over its uncommitted events.
type Drainer interface {
	DrainEvents() []Event
}

// Recorder tracks the aggregate roots touched during one unit of work so
// their events can be harvested at commit time.
type Recorder struct {
	sources []Drainer
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Track registers an aggregate root as dirty in the current unit of work.
// Tracking the same root twice is harmless; draining is idempotent.
func (r *Recorder) Track(source Drainer) {
	r.sources = append(r.sources, source)
}

// Drain collects the events of every tracked root, preserving the order in
// which roots were tracked and the order events were raised within each root.
func (r *Recorder) Drain() []Event {
	var events []Event
	for _, source := range r.sources {
		events = append(events, source.DrainEvents()...)
	}
	return events
}
