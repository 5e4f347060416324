package provisioning

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-logr/logr"
	"github.com/mattn/go-isatty"
)

// Logger is the minimal printf-style sink.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer defines the interface for structured observability during provisioning.
type Observer interface {
	Logger

	// Info, Warn and Error emit leveled status lines for the user.
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})

	// Event emits a structured event
	Event(event Event)

	// Progress reports progress for a phase
	Progress(phase string, current, total int)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "launch", "readiness")
	Message   string            // Human-readable message
	Resource  string            // Resource name/ID if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates a provisioning phase has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates a provisioning phase completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates a provisioning phase failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventResourceCreating indicates a resource is being created.
	EventResourceCreating EventType = "resource.creating"
	// EventResourceCreated indicates a resource was created successfully.
	EventResourceCreated EventType = "resource.created"
	// EventResourceDeleting indicates a resource is being deleted.
	EventResourceDeleting EventType = "resource.deleting"
	// EventResourceDeleted indicates a resource was deleted successfully.
	EventResourceDeleted EventType = "resource.deleted"

	// EventValidationWarning indicates a non-fatal configuration warning.
	EventValidationWarning EventType = "validation.warning"

	// EventInterrupted indicates the attempt observed an interruption.
	EventInterrupted EventType = "attempt.interrupted"
	// EventRollback indicates a rollback was dispatched.
	EventRollback EventType = "attempt.rollback"

	// EventProgress indicates progress in a long-running operation.
	EventProgress EventType = "progress"
)

// Level is the severity of a status line.
type Level string

// Status levels.
const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var (
	colorInfo  = lipgloss.Color("#3b82f6")
	colorWarn  = lipgloss.Color("#eab308")
	colorError = lipgloss.Color("#ef4444")
	colorDim   = lipgloss.Color("#6b7280")
)

// ConsoleObserver implements Observer on top of the standard log package.
// Level tags are coloured when the output is a terminal.
type ConsoleObserver struct {
	logger        *log.Logger
	color         bool
	contextFields map[string]string
}

// NewConsoleObserver creates a console observer writing to standard error.
func NewConsoleObserver() *ConsoleObserver {
	return NewConsoleObserverWithWriter(os.Stderr, isTerminal(os.Stderr))
}

// NewConsoleObserverWithWriter creates a console observer writing to w.
func NewConsoleObserverWithWriter(w io.Writer, color bool) *ConsoleObserver {
	return &ConsoleObserver{
		logger:        log.New(w, "", log.LstdFlags),
		color:         color,
		contextFields: make(map[string]string),
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	o.logger.Print(o.withContext(fmt.Sprintf(format, v...)))
}

// Info implements Observer.
func (o *ConsoleObserver) Info(format string, v ...interface{}) {
	o.leveled(LevelInfo, format, v...)
}

// Warn implements Observer.
func (o *ConsoleObserver) Warn(format string, v ...interface{}) {
	o.leveled(LevelWarn, format, v...)
}

// Error implements Observer.
func (o *ConsoleObserver) Error(format string, v ...interface{}) {
	o.leveled(LevelError, format, v...)
}

func (o *ConsoleObserver) leveled(level Level, format string, v ...interface{}) {
	o.logger.Print(o.levelTag(level) + " " + o.withContext(fmt.Sprintf(format, v...)))
}

func (o *ConsoleObserver) levelTag(level Level) string {
	tag := strings.ToUpper(string(level))
	if !o.color {
		return tag
	}
	style := lipgloss.NewStyle().Bold(true)
	switch level {
	case LevelWarn:
		style = style.Foreground(colorWarn)
	case LevelError:
		style = style.Foreground(colorError)
	default:
		style = style.Foreground(colorInfo)
	}
	return style.Render(tag)
}

func (o *ConsoleObserver) withContext(msg string) string {
	if len(o.contextFields) == 0 {
		return msg
	}
	fields := formatFields(o.contextFields)
	if o.color {
		fields = lipgloss.NewStyle().Foreground(colorDim).Render(fields)
	}
	return msg + " " + fields
}

// Event implements Observer interface.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Merge context fields
	if event.Fields == nil {
		event.Fields = make(map[string]string)
	}
	for k, v := range o.contextFields {
		if _, exists := event.Fields[k]; !exists {
			event.Fields[k] = v
		}
	}

	o.logger.Print(o.formatEvent(event))
}

// Progress implements Observer interface.
func (o *ConsoleObserver) Progress(phase string, current, total int) {
	if total == 0 {
		o.logger.Printf("[%s] Progress: %d/%d", phase, current, total)
		return
	}
	percentage := (current * 100) / total
	o.logger.Printf("[%s] Progress: %d/%d (%d%%)", phase, current, total, percentage)
}

// WithFields implements Observer interface.
func (o *ConsoleObserver) WithFields(fields map[string]string) Observer {
	return &ConsoleObserver{
		logger:        o.logger,
		color:         o.color,
		contextFields: mergeFields(o.contextFields, fields),
	}
}

// formatEvent formats an event for console output.
func (o *ConsoleObserver) formatEvent(event Event) string {
	var parts []string

	typ := string(event.Type)
	if o.color {
		typ = lipgloss.NewStyle().Foreground(colorDim).Render(typ)
	}
	parts = append(parts, typ)

	if event.Phase != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Phase))
	}
	if event.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", event.Resource))
	}
	parts = append(parts, event.Message)
	if len(event.Fields) > 0 {
		parts = append(parts, formatFields(event.Fields))
	}

	return strings.Join(parts, " ")
}

// formatFields renders fields as "(k=v, ...)" in key order.
func formatFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, fields[k]))
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}

func mergeFields(base, extra map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// LogrObserver implements Observer on top of a logr.Logger, for hosts that
// already log through logr.
type LogrObserver struct {
	logger logr.Logger
}

// NewLogrObserver wraps logger.
func NewLogrObserver(logger logr.Logger) *LogrObserver {
	return &LogrObserver{logger: logger}
}

// Printf implements Logger.
func (o *LogrObserver) Printf(format string, v ...interface{}) {
	o.logger.Info(fmt.Sprintf(format, v...))
}

// Info implements Observer.
func (o *LogrObserver) Info(format string, v ...interface{}) {
	o.logger.Info(fmt.Sprintf(format, v...), "level", LevelInfo)
}

// Warn implements Observer.
func (o *LogrObserver) Warn(format string, v ...interface{}) {
	o.logger.Info(fmt.Sprintf(format, v...), "level", LevelWarn)
}

// Error implements Observer.
func (o *LogrObserver) Error(format string, v ...interface{}) {
	o.logger.Error(nil, fmt.Sprintf(format, v...))
}

// Event implements Observer.
func (o *LogrObserver) Event(event Event) {
	kv := []interface{}{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	keys := make([]string, 0, len(event.Fields))
	for k := range event.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, event.Fields[k])
	}
	o.logger.Info(event.Message, kv...)
}

// Progress implements Observer.
func (o *LogrObserver) Progress(phase string, current, total int) {
	o.logger.V(1).Info("progress", "phase", phase, "current", current, "total", total)
}

// WithFields implements Observer.
func (o *LogrObserver) WithFields(fields map[string]string) Observer {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	kv := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return &LogrObserver{logger: o.logger.WithValues(kv...)}
}

// Helper functions for common events

// LogPhaseStart logs a phase start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs a phase completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs a phase failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: fmt.Sprintf("failed: %v", err),
	})
}

// LogResourceCreating logs a resource creation start event.
func LogResourceCreating(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceCreating,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("creating %s", resourceType),
		Fields: map[string]string{
			"type": resourceType,
		},
	})
}

// LogResourceCreated logs a successful resource creation event.
func LogResourceCreated(observer Observer, phase, resourceType, resourceName, resourceID string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s created", resourceType),
		Fields: map[string]string{
			"type": resourceType,
			"id":   resourceID,
		},
	})
}

// LogResourceDeleting logs a resource deletion start event.
func LogResourceDeleting(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceDeleting,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("deleting %s", resourceType),
		Fields: map[string]string{
			"type": resourceType,
		},
	})
}

// LogResourceDeleted logs a successful resource deletion event.
func LogResourceDeleted(observer Observer, phase, resourceType, resourceName string) {
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Phase:    phase,
		Resource: resourceName,
		Message:  fmt.Sprintf("%s deleted", resourceType),
		Fields: map[string]string{
			"type": resourceType,
		},
	})
}

// LogWarning reports a non-fatal configuration warning.
func LogWarning(observer Observer, phase string, w *ConfigWarning) {
	observer.Warn("%s", w.Message)
	observer.Event(Event{
		Type:    EventValidationWarning,
		Phase:   phase,
		Message: w.Message,
	})
}
