// Package student содержит доменную модель ученика программы обучения
// арабскому языку. Это ядро бизнес-логики - здесь нет внешних зависимостей.
package student

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Status определяет текущий статус ученика в программе.
type Status string

const (
	// StatusActive - ученик активно учится и входит в список посещаемости.
	StatusActive Status = "ACTIVE"
	// StatusArchived - ученик в архиве; через 30 дней запись удаляется
	// ночной очисткой.
	StatusArchived Status = "ARCHIVED"
)

// IsValid проверяет, что статус корректен.
func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusArchived:
		return true
	default:
		return false
	}
}

// ContactMethod определяет предпочтительный канал связи с родителем.
type ContactMethod string

const (
	// ContactWhatsApp - связь через WhatsApp.
	ContactWhatsApp ContactMethod = "WHATSAPP"
	// ContactEmail - связь через электронную почту.
	ContactEmail ContactMethod = "EMAIL"
)

// IsValid проверяет, что способ связи корректен.
func (c ContactMethod) IsValid() bool {
	switch c {
	case ContactWhatsApp, ContactEmail:
		return true
	default:
		return false
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PARENT
// ══════════════════════════════════════════════════════════════════════════════

// Parent представляет родителя (или опекуна) ученика.
// Телефон служит естественным ключом: при создании ученика родитель
// ищется по телефону и создаётся только при отсутствии.
type Parent struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// FullName - полное имя родителя.
	FullName string

	// Phone - номер телефона, естественный ключ.
	Phone string

	// Email - адрес электронной почты (опционально).
	Email string

	// PreferredContact - предпочтительный канал связи.
	PreferredContact ContactMethod

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewParentParams содержит параметры для создания родителя.
type NewParentParams struct {
	ID               string
	FullName         string
	Phone            string
	Email            string
	PreferredContact ContactMethod
}

// NewParent создаёт нового родителя с валидацией всех полей.
func NewParent(params NewParentParams) (*Parent, error) {
	if params.ID == "" {
		return nil, errors.New("parent id is required")
	}

	name := strings.TrimSpace(params.FullName)
	if len(name) == 0 || len(name) > 100 {
		return nil, ErrInvalidParentName
	}

	phone := strings.TrimSpace(params.Phone)
	if phone == "" {
		return nil, ErrInvalidParentPhone
	}

	contact := params.PreferredContact
	if contact == "" {
		contact = ContactWhatsApp
	}
	if !contact.IsValid() {
		return nil, ErrInvalidContactMethod
	}
	if contact == ContactEmail && strings.TrimSpace(params.Email) == "" {
		return nil, ErrEmailRequired
	}

	now := time.Now().UTC()

	return &Parent{
		ID:               params.ID,
		FullName:         name,
		Phone:            phone,
		Email:            strings.TrimSpace(params.Email),
		PreferredContact: contact,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// ContactAddress возвращает адрес для связи по предпочтительному каналу.
func (p *Parent) ContactAddress() string {
	if p.PreferredContact == ContactEmail {
		return p.Email
	}
	return p.Phone
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student - центральная сущность системы, представляющая ученика программы.
type Student struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// FullName - полное имя ученика.
	FullName string

	// ParentID - идентификатор родителя.
	ParentID string

	// Status - текущий статус в программе (ACTIVE или ARCHIVED).
	Status Status

	// ArchivedAt - время перевода в архив. Нулевое, пока ученик активен.
	// От этой даты отсчитывается 30-дневный срок до удаления.
	ArchivedAt time.Time

	// Notes - свободные заметки преподавателя.
	Notes string

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidName - невалидное имя ученика.
	ErrInvalidName = errors.New("invalid student name: must be 1-100 chars")

	// ErrInvalidStatus - невалидный статус.
	ErrInvalidStatus = errors.New("invalid student status")

	// ErrInvalidParentName - невалидное имя родителя.
	ErrInvalidParentName = errors.New("invalid parent name: must be 1-100 chars")

	// ErrInvalidParentPhone - не указан телефон родителя.
	ErrInvalidParentPhone = errors.New("parent phone is required")

	// ErrInvalidContactMethod - невалидный способ связи.
	ErrInvalidContactMethod = errors.New("invalid contact method")

	// ErrEmailRequired - выбран канал EMAIL, но адрес не указан.
	ErrEmailRequired = errors.New("email address is required for EMAIL contact method")

	// ErrStudentNotFound - ученик не найден.
	ErrStudentNotFound = errors.New("student not found")

	// ErrParentNotFound - родитель не найден.
	ErrParentNotFound = errors.New("parent not found")

	// ErrParentPhoneTaken - телефон уже закреплён за другим родителем.
	ErrParentPhoneTaken = errors.New("parent phone already registered")

	// ErrNotActive - операция требует активного ученика.
	ErrNotActive = errors.New("student is not active")

	// ErrNotArchived - операция требует архивного ученика.
	ErrNotArchived = errors.New("student is not archived")

	// ErrAlreadyArchived - ученик уже в архиве.
	ErrAlreadyArchived = errors.New("student is already archived")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewStudentParams содержит параметры для создания нового ученика.
type NewStudentParams struct {
	ID       string
	FullName string
	ParentID string
	Notes    string
}

// NewStudent создаёт нового ученика с валидацией всех полей.
// Новый ученик всегда в статусе ACTIVE.
func NewStudent(params NewStudentParams) (*Student, error) {
	if params.ID == "" {
		return nil, errors.New("student id is required")
	}

	name := strings.TrimSpace(params.FullName)
	if len(name) == 0 || len(name) > 100 {
		return nil, ErrInvalidName
	}

	if params.ParentID == "" {
		return nil, errors.New("parent id is required")
	}

	now := time.Now().UTC()

	return &Student{
		ID:        params.ID,
		FullName:  name,
		ParentID:  params.ParentID,
		Status:    StatusActive,
		Notes:     strings.TrimSpace(params.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// IsActive возвращает true, если ученик активен.
func (s *Student) IsActive() bool {
	return s.Status == StatusActive
}

// IsArchived возвращает true, если ученик в архиве.
func (s *Student) IsArchived() bool {
	return s.Status == StatusArchived
}

// Archive переводит ученика в архив и запускает 30-дневный отсчёт
// до удаления. Повторный вызов для уже архивного ученика - ошибка.
func (s *Student) Archive(at time.Time) error {
	if s.Status == StatusArchived {
		return ErrAlreadyArchived
	}

	s.Status = StatusArchived
	s.ArchivedAt = at.UTC()
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Restore возвращает ученика из архива в активный статус и
// сбрасывает отсчёт удаления. Разрешён только из статуса ARCHIVED.
func (s *Student) Restore() error {
	if s.Status != StatusArchived {
		return ErrNotArchived
	}

	s.Status = StatusActive
	s.ArchivedAt = time.Time{}
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Rename обновляет имя ученика.
func (s *Student) Rename(fullName string) error {
	name := strings.TrimSpace(fullName)
	if len(name) == 0 || len(name) > 100 {
		return ErrInvalidName
	}

	s.FullName = name
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateNotes обновляет заметки преподавателя.
func (s *Student) UpdateNotes(notes string) {
	s.Notes = strings.TrimSpace(notes)
	s.UpdatedAt = time.Now().UTC()
}

// DaysInArchive возвращает количество полных дней в архиве.
// Для активного ученика возвращает 0.
func (s *Student) DaysInArchive(now time.Time) int {
	if s.Status != StatusArchived || s.ArchivedAt.IsZero() {
		return 0
	}
	return int(now.UTC().Sub(s.ArchivedAt).Hours() / 24)
}

// String возвращает строковое представление ученика для логирования.
func (s *Student) String() string {
	return fmt.Sprintf("Student{ID: %s, Name: %s, Status: %s}", s.ID, s.FullName, s.Status)
}

// Clone создаёт глубокую копию ученика.
func (s *Student) Clone() *Student {
	if s == nil {
		return nil
	}

	clone := *s
	return &clone
}
