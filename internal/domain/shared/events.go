// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the tracker and may be picked up by notification handlers.
const (
	// Attendance events
	EventAttendanceMarked EventType = "attendance.marked"
	EventStreakWarning    EventType = "attendance.streak_warning"

	// Behavioral events
	EventIncidentRecorded EventType = "behavioral.incident_recorded"
	EventThresholdCrossed EventType = "behavioral.threshold_crossed"

	// Lesson lifecycle events
	EventLessonSoftDeleted EventType = "lesson.soft_deleted"
	EventLessonRestored    EventType = "lesson.restored"
	EventLessonPurged      EventType = "lesson.purged"

	// Student lifecycle events
	EventStudentArchived EventType = "student.archived"
	EventStudentRestored EventType = "student.restored"
	EventStudentPurged   EventType = "student.purged"

	// System events
	EventSweepCompleted EventType = "system.sweep_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Attendance Events
// ═══════════════════════════════════════════════════════════════════════════

// AttendanceMarkedEvent is emitted when a lesson's attendance is bulk-marked.
type AttendanceMarkedEvent struct {
	BaseEvent
	LessonID      string    `json:"lesson_id"`
	LessonDate    time.Time `json:"lesson_date"`
	AttendedCount int       `json:"attended_count"`
	AbsentCount   int       `json:"absent_count"`
}

// Payload implements Event interface.
func (e AttendanceMarkedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"lesson_id":      e.LessonID,
		"lesson_date":    e.LessonDate,
		"attended_count": e.AttendedCount,
		"absent_count":   e.AbsentCount,
	}
}

// NewAttendanceMarkedEvent creates a new AttendanceMarkedEvent.
func NewAttendanceMarkedEvent(lessonID string, lessonDate time.Time, attended, absent int) AttendanceMarkedEvent {
	return AttendanceMarkedEvent{
		BaseEvent:     NewBaseEvent(EventAttendanceMarked, lessonID),
		LessonID:      lessonID,
		LessonDate:    lessonDate,
		AttendedCount: attended,
		AbsentCount:   absent,
	}
}

// StreakWarningEvent is emitted when a student's consecutive-absence streak
// reaches the warning threshold (2) or beyond.
type StreakWarningEvent struct {
	BaseEvent
	StudentID           string `json:"student_id"`
	StudentName         string `json:"student_name"`
	LessonID            string `json:"lesson_id"`
	ConsecutiveAbsences int    `json:"consecutive_absences"`
}

// Payload implements Event interface.
func (e StreakWarningEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":           e.StudentID,
		"student_name":         e.StudentName,
		"lesson_id":            e.LessonID,
		"consecutive_absences": e.ConsecutiveAbsences,
	}
}

// NewStreakWarningEvent creates a new StreakWarningEvent.
func NewStreakWarningEvent(studentID, studentName, lessonID string, streak int) StreakWarningEvent {
	return StreakWarningEvent{
		BaseEvent:           NewBaseEvent(EventStreakWarning, studentID),
		StudentID:           studentID,
		StudentName:         studentName,
		LessonID:            lessonID,
		ConsecutiveAbsences: streak,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Behavioral Events
// ═══════════════════════════════════════════════════════════════════════════

// ThresholdCrossedEvent is emitted exactly once, when a student's monthly
/// incident count transitions to 3. It is an edge trigger: the 4th incident in
// the same month does not re-emit it.
type ThresholdCrossedEvent struct {
	BaseEvent
	StudentID      string `json:"student_id"`
	StudentName    string `json:"student_name"`
	Month          string `json:"month"` // YYYY-MM
	TotalIncidents int    `json:"total_incidents"`
}

// Payload implements Event interface.
func (e ThresholdCrossedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":      e.StudentID,
		"student_name":    e.StudentName,
		"month":           e.Month,
		"total_incidents": e.TotalIncidents,
	}
}

// NewThresholdCrossedEvent creates a new ThresholdCrossedEvent.
func NewThresholdCrossedEvent(studentID, studentName, month string, total int) ThresholdCrossedEvent {
	return ThresholdCrossedEvent{
		BaseEvent:      NewBaseEvent(EventThresholdCrossed, studentID),
		StudentID:      studentID,
		StudentName:    studentName,
		Month:          month,
		TotalIncidents: total,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Lifecycle Events
// ═══════════════════════════════════════════════════════════════════════════

// LifecycleEvent is emitted on soft-delete/restore/purge transitions of
// lessons and students. EntityKind is "lesson" or "student".
type LifecycleEvent struct {
	BaseEvent
	EntityKind string `json:"entity_kind"`
	EntityID   string `json:"entity_id"`
	Actor      string `json:"actor,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Payload implements Event interface.
func (e LifecycleEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"entity_kind": e.EntityKind,
		"entity_id":   e.EntityID,
		"actor":       e.Actor,
		"reason":      e.Reason,
	}
}

// NewLifecycleEvent creates a new LifecycleEvent.
func NewLifecycleEvent(eventType EventType, entityKind, entityID, actor, reason string) LifecycleEvent {
	return LifecycleEvent{
		BaseEvent:  NewBaseEvent(eventType, entityID),
		EntityKind: entityKind,
		EntityID:   entityID,
		Actor:      actor,
		Reason:     reason,
	}
}

// SweepCompletedEvent is emitted after a retention sweep run.
type SweepCompletedEvent struct {
	BaseEvent
	StudentsPurged int           `json:"students_purged"`
	LessonsPurged  int           `json:"lessons_purged"`
	Duration       time.Duration `json:"duration"`
}

// Payload implements Event interface.
func (e SweepCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"students_purged": e.StudentsPurged,
		"lessons_purged":  e.LessonsPurged,
		"duration":        e.Duration.String(),
	}
}

// NewSweepCompletedEvent creates a new SweepCompletedEvent.
func NewSweepCompletedEvent(studentsPurged, lessonsPurged int, duration time.Duration) SweepCompletedEvent {
	return SweepCompletedEvent{
		BaseEvent:      NewBaseEvent(EventSweepCompleted, "sweep"),
		StudentsPurged: studentsPurged,
		LessonsPurged:  lessonsPurged,
		Duration:       duration,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Bus Interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler processes a domain event.
type EventHandler interface {
	// Handle processes the event. Errors are logged by the bus, not propagated
	// to the publisher.
	Handle(event Event) error

	// Name returns the handler name for logging.
	Name() string
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc struct {
	HandlerName string
	Fn          func(event Event) error
}

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(event Event) error {
	return f.Fn(event)
}

// Name implements EventHandler.
func (f EventHandlerFunc) Name() string {
	return f.HandlerName
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	// Publish delivers the event to all subscribed handlers.
	Publish(event Event) error
}

// EventBus combines publishing with subscription management.
type EventBus interface {
	EventPublisher

	// Subscribe registers a handler for a specific event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error

	// Close shuts the bus down and waits for in-flight handlers.
	Close() error
}

// NopPublisher discards all events. Useful in tests.
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(Event) error { return nil }
