// Package audit содержит журнал удалений - единственный долговечный след
// ученика после окончательного удаления его записи.
package audit

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ActorSystem - имя актора для удалений, выполненных ночной очисткой.
const ActorSystem = "SYSTEM"

// ErrInvalidLogEntry - запись журнала не прошла валидацию.
var ErrInvalidLogEntry = errors.New("invalid deletion log entry")

// DeletionLog - запись журнала удалений. Журнал только дописывается:
// записи никогда не изменяются и не удаляются, и создаются строго
// до удаления самой записи ученика.
type DeletionLog struct {
	// ID - внутренний уникальный идентификатор.
	ID string

	// StudentID - идентификатор удалённого ученика.
	StudentID string

	// StudentName - имя на момент удаления (ученика больше нет в базе).
	StudentName string

	// DeletedBy - кто удалил: ActorSystem или имя администратора.
	DeletedBy string

	// Reason - причина удаления.
	Reason string

	// DeletedAt - время удаления.
	DeletedAt time.Time
}

// NewDeletionLog создаёт запись журнала с валидацией обязательных полей.
func NewDeletionLog(id, studentID, studentName, deletedBy, reason string) (*DeletionLog, error) {
	if id == "" || studentID == "" {
		return nil, ErrInvalidLogEntry
	}
	if strings.TrimSpace(deletedBy) == "" {
		return nil, ErrInvalidLogEntry
	}

	return &DeletionLog{
		ID:          id,
		StudentID:   studentID,
		StudentName: strings.TrimSpace(studentName),
		DeletedBy:   strings.TrimSpace(deletedBy),
		Reason:      strings.TrimSpace(reason),
		DeletedAt:   time.Now().UTC(),
	}, nil
}

// Repository определяет контракт журнала удалений.
// Интерфейс нарочно не содержит операций изменения и удаления.
type Repository interface {
	// Append дописывает запись в журнал.
	Append(ctx context.Context, entry *DeletionLog) error

	// List возвращает записи журнала, новые первыми.
	List(ctx context.Context, limit int) ([]*DeletionLog, error)
}
