package editor

// EventType identifies editor notifications.
type EventType int

const (
	EventDocumentLoaded EventType = iota
	EventLayersChanged
	EventSelectionChanged
	EventGuidesChanged
	EventHistoryChanged
	EventDragStart
	EventDragEnd
	EventLoadFailed
	EventViewportChanged
	EventExported
	EventClosed
)

var eventNames = [...]string{
	"document-loaded",
	"layers-changed",
	"selection-changed",
	"guides-changed",
	"history-changed",
	"drag-start",
	"drag-end",
	"load-failed",
	"viewport-changed",
	"exported",
	"closed",
}

func (e EventType) String() string {
	if int(e) < len(eventNames) {
		return eventNames[e]
	}
	return "unknown"
}

// EventListener is called when an event occurs. The payload depends on the
// event: EventDragStart carries the dragged layer's layer.Type,
// EventLoadFailed a LoadFailure, EventSelectionChanged the selected ids.
type EventListener func(data interface{})

// LoadFailure describes a bitmap that could not be loaded.
type LoadFailure struct {
	Source string
	Err    error
}

// On registers an event listener for the specified event type.
func (e *Editor) On(event EventType, listener EventListener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners[event] = append(e.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (e *Editor) Emit(event EventType, data interface{}) {
	e.mu.RLock()
	listeners := e.listeners[event]
	e.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}
