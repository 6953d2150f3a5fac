// Package lesson содержит доменную модель урока и связанных с ним записей:
// посещаемость, домашние задания и оценки участия.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package lesson

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS & ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// CategoryTag представляет тематическую категорию урока.
type CategoryTag string

const (
	// TagNahw - грамматика (نحو).
	TagNahw CategoryTag = "NAHW"
	// TagAdab - литература (أدب).
	TagAdab CategoryTag = "ADAB"
	// TagBalagha - риторика (بلاغة).
	TagBalagha CategoryTag = "BALAGHA"
	// TagTabeer - сочинение (تعبير).
	TagTabeer CategoryTag = "TABEER"
	// TagQiraa - чтение и понимание (قراءة/فهم مقروء).
	TagQiraa CategoryTag = "QIRAA"
	// TagNusus - тексты (نصوص).
	TagNusus CategoryTag = "NUSUS"
)

// IsValid проверяет, что тег корректен.
func (t CategoryTag) IsValid() bool {
	switch t {
	case TagNahw, TagAdab, TagBalagha, TagTabeer, TagQiraa, TagNusus:
		return true
	default:
		return false
	}
}

// ArabicName возвращает арабское название категории.
func (t CategoryTag) ArabicName() string {
	switch t {
	case TagNahw:
		return "نحو"
	case TagAdab:
		return "أدب"
	case TagBalagha:
		return "بلاغة"
	case TagTabeer:
		return "تعبير"
	case TagQiraa:
		return "قراءة/فهم مقروء"
	case TagNusus:
		return "نصوص"
	default:
		return string(t)
	}
}

// Score представляет оценку участия ученика на уроке.
type Score int

const (
	// MinScore - минимальная оценка участия.
	MinScore Score = 0
	// MaxScore - максимальная оценка участия.
	MaxScore Score = 5
	// BaselineScore - базовая оценка, автоматически выставляемая
	// при отметке присутствия.
	BaselineScore Score = 1
)

// IsValid проверяет, что оценка в диапазоне [0, 5].
func (s Score) IsValid() bool {
	return s >= MinScore && s <= MaxScore
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrLessonNotFound - урок не найден или помечен удалённым.
	ErrLessonNotFound = errors.New("lesson not found")

	// ErrAttendanceNotFound - запись посещаемости не найдена.
	ErrAttendanceNotFound = errors.New("attendance record not found")

	// ErrHomeworkNotFound - запись домашнего задания не найдена.
	ErrHomeworkNotFound = errors.New("homework record not found")

	// ErrParticipationNotFound - запись участия не найдена.
	ErrParticipationNotFound = errors.New("participation record not found")

	// ErrDateTaken - на эту дату уже есть активный урок.
	ErrDateTaken = errors.New("an active lesson already exists on this date")

	// ErrInvalidTag - невалидный тег категории.
	ErrInvalidTag = errors.New("invalid category tag")

	// ErrInvalidScore - оценка вне диапазона [0, 5].
	ErrInvalidScore = errors.New("invalid participation score: must be between 0 and 5")

	// ErrNotDeleted - операция требует урок в корзине.
	ErrNotDeleted = errors.New("lesson is not soft-deleted")

	// ErrAlreadyDeleted - урок уже в корзине.
	ErrAlreadyDeleted = errors.New("lesson is already soft-deleted")

	// ErrStudentNotAttended - ученик не отмечен присутствовавшим на уроке.
	ErrStudentNotAttended = errors.New("student did not attend this lesson")

	// ErrNoHomework - урок объявлен без домашнего задания.
	ErrNoHomework = errors.New("lesson has no homework assigned")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: LESSON
// ══════════════════════════════════════════════════════════════════════════════

// Lesson представляет одно занятие. Инвариант: на одну календарную дату
// может приходиться не более одного активного (не удалённого) урока.
type Lesson struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// Date - календарная дата занятия (UTC, без времени).
	Date time.Time

	// Topics - свободный текст с темами занятия.
	Topics string

	// Tags - тематические категории занятия.
	Tags []CategoryTag

	// HasHomework - было ли задано домашнее задание.
	HasHomework bool

	// AttendanceMarked - посещаемость отмечена хотя бы один раз.
	AttendanceMarked bool

	// HomeworkMarked - домашние задания отмечены хотя бы один раз.
	HomeworkMarked bool

	// ParticipationMarked - участие отмечено хотя бы один раз.
	ParticipationMarked bool

	// DeletedAt - время мягкого удаления. Нулевое = урок активен.
	// От этой отметки отсчитывается 7-дневный срок до окончательной очистки.
	DeletedAt time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewLessonParams содержит параметры для создания нового урока.
type NewLessonParams struct {
	ID          string
	Date        time.Time
	Topics      string
	Tags        []CategoryTag
	HasHomework bool
}

// NewLesson создаёт новый активный урок с валидацией всех полей.
// Уникальность даты проверяется на уровне приложения и хранилища.
func NewLesson(params NewLessonParams) (*Lesson, error) {
	if params.ID == "" {
		return nil, errors.New("lesson id is required")
	}

	if params.Date.IsZero() {
		return nil, errors.New("lesson date is required")
	}

	for _, tag := range params.Tags {
		if !tag.IsValid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTag, tag)
		}
	}

	d := params.Date.UTC()
	now := time.Now().UTC()

	return &Lesson{
		ID:          params.ID,
		Date:        time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC),
		Topics:      strings.TrimSpace(params.Topics),
		Tags:        params.Tags,
		HasHomework: params.HasHomework,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// IsDeleted возвращает true, если урок в корзине.
func (l *Lesson) IsDeleted() bool {
	return !l.DeletedAt.IsZero()
}

// SoftDelete помечает урок удалённым и запускает 7-дневный отсчёт
// до окончательной очистки.
func (l *Lesson) SoftDelete(at time.Time) error {
	if l.IsDeleted() {
		return ErrAlreadyDeleted
	}

	l.DeletedAt = at.UTC()
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// Restore возвращает урок из корзины. Проверка занятости даты
// выполняется на уровне приложения до вызова.
func (l *Lesson) Restore() error {
	if !l.IsDeleted() {
		return ErrNotDeleted
	}

	l.DeletedAt = time.Time{}
	l.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkAttendanceDone выставляет флаг отмеченной посещаемости.
func (l *Lesson) MarkAttendanceDone() {
	l.AttendanceMarked = true
	l.UpdatedAt = time.Now().UTC()
}

// MarkHomeworkDone выставляет флаг отмеченных домашних заданий.
func (l *Lesson) MarkHomeworkDone() {
	l.HomeworkMarked = true
	l.UpdatedAt = time.Now().UTC()
}

// MarkParticipationDone выставляет флаг отмеченного участия.
func (l *Lesson) MarkParticipationDone() {
	l.ParticipationMarked = true
	l.UpdatedAt = time.Now().UTC()
}

// DaysDeleted возвращает количество полных дней в корзине.
func (l *Lesson) DaysDeleted(now time.Time) int {
	if !l.IsDeleted() {
		return 0
	}
	return int(now.UTC().Sub(l.DeletedAt).Hours() / 24)
}

// String возвращает строковое представление урока для логирования.
func (l *Lesson) String() string {
	return fmt.Sprintf("Lesson{ID: %s, Date: %s, Deleted: %t}",
		l.ID, l.Date.Format("2006-01-02"), l.IsDeleted())
}

// Clone создаёт глубокую копию урока.
func (l *Lesson) Clone() *Lesson {
	if l == nil {
		return nil
	}

	clone := *l
	clone.Tags = append([]CategoryTag(nil), l.Tags...)
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// PER-STUDENT RECORDS
// Каждая запись уникальна по паре урок×ученик.
// ══════════════════════════════════════════════════════════════════════════════

// Attendance представляет отметку посещаемости одного ученика на одном уроке.
type Attendance struct {
	// ID - внутренний уникальный идентификатор.
	ID string

	// LessonID - идентификатор урока.
	LessonID string

	// StudentID - идентификатор ученика.
	StudentID string

	// Attended - присутствовал ли ученик.
	Attended bool

	// ConsecutiveAbsences - длина серии пропусков, включая этот.
	// Имеет смысл только при Attended=false; при Attended=true равно 0.
	// Значение производное: пересчитывается из истории при каждой записи.
	ConsecutiveAbsences int

	// LessonDate - дата урока (денормализована для пересчёта серий).
	LessonDate time.Time

	// CreatedAt - время создания записи.
	CreatedAt time.Time
}

// NewAttendance создаёт запись посещаемости.
func NewAttendance(id, lessonID, studentID string, lessonDate time.Time, attended bool, streak int) *Attendance {
	if attended {
		streak = 0
	}
	return &Attendance{
		ID:                  id,
		LessonID:            lessonID,
		StudentID:           studentID,
		Attended:            attended,
		ConsecutiveAbsences: streak,
		LessonDate:          lessonDate.UTC(),
		CreatedAt:           time.Now().UTC(),
	}
}

// Homework представляет отметку домашнего задания одного ученика.
// Инвариант: существует только для учеников с Attended=true на этом уроке.
type Homework struct {
	// ID - внутренний уникальный идентификатор.
	ID string

	// LessonID - идентификатор урока.
	LessonID string

	// StudentID - идентификатор ученика.
	StudentID string

	// Completed - выполнено ли задание.
	Completed bool

	// CreatedAt - время создания записи.
	CreatedAt time.Time
}

// NewHomework создаёт запись домашнего задания.
func NewHomework(id, lessonID, studentID string, completed bool) *Homework {
	return &Homework{
		ID:        id,
		LessonID:  lessonID,
		StudentID: studentID,
		Completed: completed,
		CreatedAt: time.Now().UTC(),
	}
}

// Participation представляет оценку участия одного ученика на одном уроке.
// Инвариант: существует только для учеников с Attended=true; создаётся
// автоматически с базовой оценкой при отметке присутствия и может быть
// впоследствии перезаписана явной оценкой.
type Participation struct {
	// ID - внутренний уникальный идентификатор.
	ID string

	// LessonID - идентификатор урока.
	LessonID string

	// StudentID - идентификатор ученика.
	StudentID string

	// Score - оценка участия в диапазоне [0, 5].
	Score Score

	// CreatedAt - время создания записи.
	CreatedAt time.Time
}

// NewParticipation создаёт запись участия с валидацией оценки.
func NewParticipation(id, lessonID, studentID string, score Score) (*Participation, error) {
	if !score.IsValid() {
		return nil, ErrInvalidScore
	}
	return &Participation{
		ID:        id,
		LessonID:  lessonID,
		StudentID: studentID,
		Score:     score,
		CreatedAt: time.Now().UTC(),
	}, nil
}
