package provisioning

import (
	"fmt"
	"sync"
)

// MockObserver is an Observer that records everything it receives.
// It is safe for concurrent use; observers derived with WithFields share
// the parent's records.
type MockObserver struct {
	rec    *mockRecords
	fields map[string]string
}

type mockRecords struct {
	mu       sync.Mutex
	events   []Event
	messages []string
	warnings []string
	errors   []string
}

var _ Observer = (*MockObserver)(nil)

// NewMockObserver returns an empty MockObserver.
func NewMockObserver() *MockObserver {
	return &MockObserver{rec: &mockRecords{}, fields: map[string]string{}}
}

// Printf implements Logger.
func (m *MockObserver) Printf(format string, v ...interface{}) {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	m.rec.messages = append(m.rec.messages, fmt.Sprintf(format, v...))
}

// Info implements Observer.
func (m *MockObserver) Info(format string, v ...interface{}) {
	m.Printf(format, v...)
}

// Warn implements Observer.
func (m *MockObserver) Warn(format string, v ...interface{}) {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	m.rec.warnings = append(m.rec.warnings, fmt.Sprintf(format, v...))
}

// Error implements Observer.
func (m *MockObserver) Error(format string, v ...interface{}) {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	m.rec.errors = append(m.rec.errors, fmt.Sprintf(format, v...))
}

// Event implements Observer.
func (m *MockObserver) Event(event Event) {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	m.rec.events = append(m.rec.events, event)
}

// Progress implements Observer.
func (m *MockObserver) Progress(phase string, current, total int) {
	m.Event(Event{
		Type:    EventProgress,
		Phase:   phase,
		Message: "progress",
		Fields: map[string]string{
			"current": fmt.Sprint(current),
			"total":   fmt.Sprint(total),
		},
	})
}

// WithFields implements Observer.
func (m *MockObserver) WithFields(fields map[string]string) Observer {
	return &MockObserver{rec: m.rec, fields: mergeFields(m.fields, fields)}
}

// Fields returns the context fields of this observer.
func (m *MockObserver) Fields() map[string]string {
	return mergeFields(m.fields, nil)
}

// Events returns a copy of the recorded events.
func (m *MockObserver) Events() []Event {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	return append([]Event(nil), m.rec.events...)
}

// EventsOfType returns the recorded events of type t.
func (m *MockObserver) EventsOfType(t EventType) []Event {
	var out []Event
	for _, e := range m.Events() {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the recorded Printf and Info lines.
func (m *MockObserver) Messages() []string {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	return append([]string(nil), m.rec.messages...)
}

// Warnings returns the recorded Warn lines.
func (m *MockObserver) Warnings() []string {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	return append([]string(nil), m.rec.warnings...)
}

// Errors returns the recorded Error lines.
func (m *MockObserver) Errors() []string {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	return append([]string(nil), m.rec.errors...)
}
