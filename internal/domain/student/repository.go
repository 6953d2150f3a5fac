package student

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет основные операции CRUD для учеников.
type Repository interface {
	// Create создаёт нового ученика.
	Create(ctx context.Context, student *Student) error

	// GetByID возвращает ученика по ID независимо от статуса.
	// Возвращает ErrStudentNotFound, если ученик не найден.
	GetByID(ctx context.Context, id string) (*Student, error)

	// Update обновляет данные ученика.
	// Возвращает ErrStudentNotFound, если ученик не найден.
	Update(ctx context.Context, student *Student) error

	// HardDelete физически удаляет запись ученика. Перед вызовом
	// должны быть удалены все зависимые записи и создан DeletionLog.
	HardDelete(ctx context.Context, id string) error

	// GetActive возвращает всех активных учеников, отсортированных по имени.
	// Это список посещаемости для массовой отметки.
	GetActive(ctx context.Context) ([]*Student, error)

	// GetArchived возвращает всех архивных учеников.
	GetArchived(ctx context.Context) ([]*Student, error)

	// FindArchivedBefore возвращает учеников, архивированных до указанного
	// момента. Используется ночной очисткой для поиска кандидатов на удаление.
	FindArchivedBefore(ctx context.Context, cutoff time.Time) ([]*Student, error)

	// GetByIDs возвращает учеников по списку ID. Ненайденные ID
	// молча пропускаются.
	GetByIDs(ctx context.Context, ids []string) ([]*Student, error)

	// CountActive возвращает количество активных учеников.
	CountActive(ctx context.Context) (int, error)
}

// ParentRepository определяет операции для работы с родителями.
type ParentRepository interface {
	// Create создаёт нового родителя.
	Create(ctx context.Context, parent *Parent) error

	// GetByID возвращает родителя по ID.
	// Возвращает ErrParentNotFound, если родитель не найден.
	GetByID(ctx context.Context, id string) (*Parent, error)

	// GetByPhone ищет родителя по номеру телефона (естественный ключ).
	// Возвращает ErrParentNotFound, если родитель не найден.
	GetByPhone(ctx context.Context, phone string) (*Parent, error)

	// Update обновляет данные родителя.
	Update(ctx context.Context, parent *Parent) error
}
