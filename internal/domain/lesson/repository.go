package lesson

import (
	"context"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Эти интерфейсы определяют контракт для работы с хранилищем данных.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции для работы с уроками.
type Repository interface {
	// Create создаёт новый урок.
	Create(ctx context.Context, l *Lesson) error

	// GetByID возвращает урок по ID независимо от статуса удаления.
	// Возвращает ErrLessonNotFound, если урок не найден.
	GetByID(ctx context.Context, id string) (*Lesson, error)

	// GetActiveByDate возвращает активный урок на указанную дату.
	// Возвращает ErrLessonNotFound, если такого нет.
	GetActiveByDate(ctx context.Context, date time.Time) (*Lesson, error)

	// Update обновляет данные урока.
	Update(ctx context.Context, l *Lesson) error

	// HardDelete физически удаляет запись урока. Все зависимые записи
	// должны быть удалены до вызова.
	HardDelete(ctx context.Context, id string) error

	// GetActiveInRange возвращает активные уроки в диапазоне дат
	// (границы включительно), отсортированные по дате.
	GetActiveInRange(ctx context.Context, from, to time.Time) ([]*Lesson, error)

	// GetDeleted возвращает уроки в корзине.
	GetDeleted(ctx context.Context) ([]*Lesson, error)

	// FindDeletedBefore возвращает уроки, удалённые до указанного момента.
	// Используется ночной очисткой для поиска кандидатов.
	FindDeletedBefore(ctx context.Context, cutoff time.Time) ([]*Lesson, error)
}

// AttendanceRepository определяет операции с записями посещаемости.
type AttendanceRepository interface {
	// Create создаёт запись посещаемости.
	Create(ctx context.Context, a *Attendance) error

	// Get возвращает запись по паре урок×ученик.
	// Возвращает ErrAttendanceNotFound, если запись не найдена.
	Get(ctx context.Context, lessonID, studentID string) (*Attendance, error)

	// Update обновляет запись посещаемости.
	Update(ctx context.Context, a *Attendance) error

	// GetByLesson возвращает все записи урока.
	GetByLesson(ctx context.Context, lessonID string) ([]*Attendance, error)

	// GetByStudent возвращает историю ученика по активным урокам
	// в диапазоне дат (границы включительно).
	GetByStudent(ctx context.Context, studentID string, from, to time.Time) ([]*Attendance, error)

	// DeleteByLesson удаляет все записи урока. Используется
	// при полной перезаписи посещаемости и при очистке урока.
	DeleteByLesson(ctx context.Context, lessonID string) error

	// DeleteByStudent удаляет все записи ученика. Используется
	// при окончательном удалении ученика.
	DeleteByStudent(ctx context.Context, studentID string) error

	// FindAbsentWithStreak возвращает записи пропусков с серией не ниже
	// указанной по активным урокам. Основа списка предупреждений.
	FindAbsentWithStreak(ctx context.Context, minStreak int) ([]*Attendance, error)
}

// HomeworkRepository определяет операции с записями домашних заданий.
type HomeworkRepository interface {
	// Upsert создаёт или обновляет запись по паре урок×ученик.
	Upsert(ctx context.Context, h *Homework) error

	// Get возвращает запись по паре урок×ученик.
	// Возвращает ErrHomeworkNotFound, если записи нет.
	Get(ctx context.Context, lessonID, studentID string) (*Homework, error)

	// GetByLesson возвращает все записи урока.
	GetByLesson(ctx context.Context, lessonID string) ([]*Homework, error)

	// GetByStudentLessons возвращает записи ученика по списку уроков.
	GetByStudentLessons(ctx context.Context, studentID string, lessonIDs []string) ([]*Homework, error)

	// Delete удаляет запись по паре урок×ученик, если она есть.
	Delete(ctx context.Context, lessonID, studentID string) error

	// DeleteByLesson удаляет все записи урока.
	DeleteByLesson(ctx context.Context, lessonID string) error

	// DeleteByStudent удаляет все записи ученика.
	DeleteByStudent(ctx context.Context, studentID string) error
}

// ParticipationRepository определяет операции с записями участия.
type ParticipationRepository interface {
	// Create создаёт запись участия.
	Create(ctx context.Context, p *Participation) error

	// Upsert создаёт или обновляет запись по паре урок×ученик.
	Upsert(ctx context.Context, p *Participation) error

	// Get возвращает запись по паре урок×ученик.
	// Возвращает ErrParticipationNotFound, если записи нет.
	Get(ctx context.Context, lessonID, studentID string) (*Participation, error)

	// GetByLesson возвращает все записи урока.
	GetByLesson(ctx context.Context, lessonID string) ([]*Participation, error)

	// GetByStudentLessons возвращает записи ученика по списку уроков.
	GetByStudentLessons(ctx context.Context, studentID string, lessonIDs []string) ([]*Participation, error)

	// Delete удаляет запись по паре урок×ученик, если она есть.
	Delete(ctx context.Context, lessonID, studentID string) error

	// DeleteByLesson удаляет все записи урока.
	DeleteByLesson(ctx context.Context, lessonID string) error

	// DeleteByStudent удаляет все записи ученика.
	DeleteByStudent(ctx context.Context, studentID string) error
}

// MonthlyAttendanceCache кеширует помесячные сводки посещаемости ученика.
// Обычно реализуется через Redis; реализация может отсутствовать,
// тогда запросы идут напрямую в хранилище.
type MonthlyAttendanceCache interface {
	// Get возвращает закешированную сводку в сыром виде (JSON).
	// Возвращает (nil, nil) при промахе кеша.
	Get(ctx context.Context, studentID string, year, month int) ([]byte, error)

	// Set сохраняет сводку с TTL.
	Set(ctx context.Context, studentID string, year, month int, payload []byte, ttl time.Duration) error

	// Invalidate удаляет закешированные сводки ученика.
	Invalidate(ctx context.Context, studentID string) error
}
