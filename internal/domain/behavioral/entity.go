// Package behavioral содержит доменную модель поведенческих инцидентов
// и помесячную агрегацию: подсчёт, классификацию уровня и рейтинг
// "с кем чаще всего разговаривал".
package behavioral

import (
	"errors"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// IncidentType определяет тип поведенческого инцидента.
type IncidentType string

const (
	// TypeTalksWithOthers - разговаривал с другими учениками.
	TypeTalksWithOthers IncidentType = "TALKS_WITH_OTHERS"
	// TypeDisruptive - мешал занятию.
	TypeDisruptive IncidentType = "DISRUPTIVE"
	// TypeDisrespectful - неуважительное поведение.
	TypeDisrespectful IncidentType = "DISRESPECTFUL"
	// TypeLate - опоздал на занятие.
	TypeLate IncidentType = "LATE"
	// TypeLeftEarly - ушёл раньше окончания.
	TypeLeftEarly IncidentType = "LEFT_EARLY"
)

// AllIncidentTypes перечисляет допустимые типы инцидентов.
var AllIncidentTypes = []IncidentType{
	TypeTalksWithOthers,
	TypeDisruptive,
	TypeDisrespectful,
	TypeLate,
	TypeLeftEarly,
}

// IsValid проверяет, что тип инцидента корректен.
func (t IncidentType) IsValid() bool {
	for _, known := range AllIncidentTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Level представляет уровень поведения за календарный месяц,
// производный от числа инцидентов.
type Level string

const (
	// LevelExemplary - ни одного инцидента.
	LevelExemplary Level = "EXEMPLARY"
	// LevelGood - 1-2 инцидента.
	LevelGood Level = "GOOD"
	// LevelMinorIssues - 3-5 инцидентов.
	LevelMinorIssues Level = "MINOR_ISSUES"
	// LevelBehavioralConcerns - 6-10 инцидентов.
	LevelBehavioralConcerns Level = "BEHAVIORAL_CONCERNS"
	// LevelSeriousIssues - 11 и более инцидентов.
	LevelSeriousIssues Level = "SERIOUS_ISSUES"
)

// ClassifyLevel отображает месячное число инцидентов на уровень поведения.
// Отображение монотонно: рост счётчика никогда не понижает уровень.
func ClassifyLevel(monthlyCount int) Level {
	switch {
	case monthlyCount <= 0:
		return LevelExemplary
	case monthlyCount <= 2:
		return LevelGood
	case monthlyCount <= 5:
		return LevelMinorIssues
	case monthlyCount <= 10:
		return LevelBehavioralConcerns
	default:
		return LevelSeriousIssues
	}
}

// NotificationThreshold - месячное число инцидентов, при достижении
// которого (ровно) срабатывает одноразовое уведомление родителя.
const NotificationThreshold = 3

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrIncidentNotFound - инцидент не найден.
	ErrIncidentNotFound = errors.New("behavioral incident not found")

	// ErrInvalidIncidentType - невалидный тип инцидента.
	ErrInvalidIncidentType = errors.New("invalid incident type")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: INCIDENT
// ══════════════════════════════════════════════════════════════════════════════

// Incident представляет один зафиксированный поведенческий инцидент.
// Инвариант: создаётся только для ученика, отмеченного присутствовавшим
// на соответствующем уроке.
type Incident struct {
	// ID - внутренний уникальный идентификатор (UUID в строковом формате).
	ID string

	// LessonID - урок, на котором произошёл инцидент.
	LessonID string

	// StudentID - ученик, к которому относится инцидент.
	StudentID string

	// Type - тип инцидента.
	Type IncidentType

	// TalkedWithIDs - ученики, с которыми разговаривал (опционально,
	// обычно заполняется для TALKS_WITH_OTHERS).
	TalkedWithIDs []string

	// Notes - свободные заметки преподавателя.
	Notes string

	// CreatedAt - серверное время фиксации. Определяет календарный месяц,
	// в котором инцидент учитывается.
	CreatedAt time.Time
}

// NewIncidentParams содержит параметры для создания инцидента.
type NewIncidentParams struct {
	ID            string
	LessonID      string
	StudentID     string
	Type          IncidentType
	TalkedWithIDs []string
	Notes         string
}

// NewIncident создаёт инцидент с валидацией типа. Время фиксации
// выставляется сервером, а не вызывающей стороной.
func NewIncident(params NewIncidentParams) (*Incident, error) {
	if params.ID == "" {
		return nil, errors.New("incident id is required")
	}
	if params.LessonID == "" {
		return nil, errors.New("lesson id is required")
	}
	if params.StudentID == "" {
		return nil, errors.New("student id is required")
	}
	if !params.Type.IsValid() {
		return nil, ErrInvalidIncidentType
	}

	return &Incident{
		ID:            params.ID,
		LessonID:      params.LessonID,
		StudentID:     params.StudentID,
		Type:          params.Type,
		TalkedWithIDs: params.TalkedWithIDs,
		Notes:         strings.TrimSpace(params.Notes),
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATION (pure functions)
// ══════════════════════════════════════════════════════════════════════════════

// TypeHistogram считает инциденты по типам.
func TypeHistogram(incidents []*Incident) map[IncidentType]int {
	hist := make(map[IncidentType]int, len(AllIncidentTypes))
	for _, inc := range incidents {
		hist[inc.Type]++
	}
	return hist
}

// TalkedWithEntry - одна строка рейтинга "с кем чаще всего разговаривал".
type TalkedWithEntry struct {
	StudentID   string
	StudentName string
	Count       int
}

// RankTalkedWith строит рейтинг собеседников по списку инцидентов.
// Все TalkedWithIDs инцидентов разворачиваются в плоский список,
// считаются вхождения по каждому ID и имена разрешаются через resolveName.
// ID, которые больше не разрешаются в ученика, молча отбрасываются.
// Сортировка по убыванию счётчика, при равенстве - стабильная
// (в порядке первого появления).
func RankTalkedWith(incidents []*Incident, resolveName func(id string) (string, bool)) []TalkedWithEntry {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, inc := range incidents {
		for _, id := range inc.TalkedWithIDs {
			if _, seen := counts[id]; !seen {
				order = append(order, id)
			}
			counts[id]++
		}
	}

	entries := make([]TalkedWithEntry, 0, len(order))
	for _, id := range order {
		name, ok := resolveName(id)
		if !ok {
			continue
		}
		entries = append(entries, TalkedWithEntry{
			StudentID:   id,
			StudentName: name,
			Count:       counts[id],
		})
	}

	// Сортировка вставками сохраняет стабильность при равных счётчиках.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Count > entries[j-1].Count; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}

	return entries
}
