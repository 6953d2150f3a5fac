package lesson

import (
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSECUTIVE-ABSENCE STREAK
// Серия пропусков - производная величина: она каждый раз пересчитывается
// из истории посещаемости, а не хранится как накопительный счётчик.
// Это сознательно: пересчёт корректно переживает задним числом внесённые
// исправления, тогда как счётчик накапливал бы расхождения.
// ══════════════════════════════════════════════════════════════════════════════

// ConsecutiveAbsences вычисляет длину серии пропусков для пропуска,
// регистрируемого на дату lessonDate: 1 (за сам пропуск) плюс число
// непрерывно предшествующих пропусков в history. Подсчёт идёт от lessonDate
// назад по датам и останавливается на первой записи с Attended=true
// либо на конце истории.
//
// В history попадают только записи с датой строго раньше lessonDate;
// записи раньше floor (нижней границы хранения) игнорируются.
// Сложность O(n log n) от длины истории.
func ConsecutiveAbsences(history []*Attendance, lessonDate, floor time.Time) int {
	prior := make([]*Attendance, 0, len(history))
	for _, a := range history {
		if a.LessonDate.Before(lessonDate) && !a.LessonDate.Before(floor) {
			prior = append(prior, a)
		}
	}

	sort.Slice(prior, func(i, j int) bool {
		return prior[i].LessonDate.After(prior[j].LessonDate)
	})

	streak := 1
	for _, a := range prior {
		if a.Attended {
			break
		}
		streak++
	}
	return streak
}

// WarningThreshold - длина серии, с которой начинается предупреждение.
const WarningThreshold = 2

// DeletionTriggerThreshold - длина серии, с которой ставится вопрос
// об отчислении.
const DeletionTriggerThreshold = 3

// WarningTag классифицирует серию пропусков для списка предупреждений.
type WarningTag string

const (
	// WarnTwoAbsences - ровно два пропуска подряд.
	WarnTwoAbsences WarningTag = "TWO_ABSENCES"
	// WarnDeletionTrigger - три и более пропусков подряд.
	WarnDeletionTrigger WarningTag = "DELETION_TRIGGER"
)

// ClassifyStreak возвращает тег предупреждения для серии пропусков.
// Для серий короче порога возвращает пустой тег.
func ClassifyStreak(streak int) WarningTag {
	switch {
	case streak >= DeletionTriggerThreshold:
		return WarnDeletionTrigger
	case streak == WarningThreshold:
		return WarnTwoAbsences
	default:
		return ""
	}
}
