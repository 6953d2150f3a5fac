package behavioral

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции для работы с инцидентами.
type Repository interface {
	// Create сохраняет новый инцидент.
	Create(ctx context.Context, inc *Incident) error

	// GetByID возвращает инцидент по ID.
	// Возвращает ErrIncidentNotFound, если инцидент не найден.
	GetByID(ctx context.Context, id string) (*Incident, error)

	// Delete физически удаляет инцидент.
	// Возвращает ErrIncidentNotFound, если инцидент не найден.
	Delete(ctx context.Context, id string) error

	// GetByLesson возвращает инциденты урока в порядке фиксации.
	GetByLesson(ctx context.Context, lessonID string) ([]*Incident, error)

	// GetByStudentInRange возвращает инциденты ученика за период
	// [from, to) по времени фиксации.
	GetByStudentInRange(ctx context.Context, studentID string, from, to time.Time) ([]*Incident, error)

	// CountByStudentInRange считает инциденты ученика за период [from, to).
	CountByStudentInRange(ctx context.Context, studentID string, from, to time.Time) (int, error)

	// DeleteByLesson удаляет все инциденты урока. Вызывается каскадом
	// при окончательной очистке урока.
	DeleteByLesson(ctx context.Context, lessonID string) error

	// DeleteByStudent удаляет все инциденты ученика. Вызывается каскадом
	// при окончательном удалении ученика.
	DeleteByStudent(ctx context.Context, studentID string) error
}

// SummaryCache кеширует помесячные поведенческие сводки.
// Обычно реализуется через Redis; реализация может отсутствовать,
// тогда сводки считаются на каждый запрос.
type SummaryCache interface {
	// Get возвращает закешированную сводку в сыром виде (JSON).
	// Возвращает (nil, nil) при промахе кеша.
	Get(ctx context.Context, studentID, yearMonth string) ([]byte, error)

	// Set сохраняет сводку с TTL.
	Set(ctx context.Context, studentID, yearMonth string, payload []byte, ttl time.Duration) error

	// Invalidate удаляет закешированные сводки ученика.
	// Вызывается после создания или удаления инцидента.
	Invalidate(ctx context.Context, studentID string) error
}
