package command

// In-memory fakes backing the command tests. The fake unit of work hands
// out repositories over one shared store; commands whose invariants are
// checked before any write behave the same as under a real rollback.

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maktab-hub/maktab-tracker/internal/domain/audit"
	"github.com/maktab-hub/maktab-tracker/internal/domain/behavioral"
	"github.com/maktab-hub/maktab-tracker/internal/domain/lesson"
	"github.com/maktab-hub/maktab-tracker/internal/domain/shared"
	"github.com/maktab-hub/maktab-tracker/internal/domain/student"
)

type memStore struct {
	students      map[string]*student.Student
	parents       map[string]*student.Parent
	lessons       map[string]*lesson.Lesson
	attendance    map[string]*lesson.Attendance
	homework      map[string]*lesson.Homework
	participation map[string]*lesson.Participation
	incidents     map[string]*behavioral.Incident
	logs          []*audit.DeletionLog
}

func newMemStore() *memStore {
	return &memStore{
		students:      make(map[string]*student.Student),
		parents:       make(map[string]*student.Parent),
		lessons:       make(map[string]*lesson.Lesson),
		attendance:    make(map[string]*lesson.Attendance),
		homework:      make(map[string]*lesson.Homework),
		participation: make(map[string]*lesson.Participation),
		incidents:     make(map[string]*behavioral.Incident),
	}
}

func pairKey(lessonID, studentID string) string {
	return lessonID + "|" + studentID
}

func (s *memStore) repos() Repos {
	return Repos{
		Students:      &memStudents{s},
		Parents:       &memParents{s},
		Lessons:       &memLessons{s},
		Attendance:    &memAttendance{s},
		Homework:      &memHomework{s},
		Participation: &memParticipation{s},
		Incidents:     &memIncidents{s},
		DeletionLogs:  &memLogs{s},
	}
}

type fakeUOW struct{ store *memStore }

func (u *fakeUOW) WithinTx(ctx context.Context, fn func(ctx context.Context, r Repos) error) error {
	return fn(ctx, u.store.repos())
}

// ─────────────────────────────────────────────────────────────────────────────
// Students
// ─────────────────────────────────────────────────────────────────────────────

type memStudents struct{ s *memStore }

func (m *memStudents) Create(_ context.Context, stu *student.Student) error {
	m.s.students[stu.ID] = stu.Clone()
	return nil
}

func (m *memStudents) GetByID(_ context.Context, id string) (*student.Student, error) {
	stu, ok := m.s.students[id]
	if !ok {
		return nil, student.ErrStudentNotFound
	}
	return stu.Clone(), nil
}

func (m *memStudents) Update(_ context.Context, stu *student.Student) error {
	if _, ok := m.s.students[stu.ID]; !ok {
		return student.ErrStudentNotFound
	}
	m.s.students[stu.ID] = stu.Clone()
	return nil
}

func (m *memStudents) HardDelete(_ context.Context, id string) error {
	delete(m.s.students, id)
	return nil
}

func (m *memStudents) GetActive(_ context.Context) ([]*student.Student, error) {
	var out []*student.Student
	for _, stu := range m.s.students {
		if stu.IsActive() {
			out = append(out, stu.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (m *memStudents) GetArchived(_ context.Context) ([]*student.Student, error) {
	var out []*student.Student
	for _, stu := range m.s.students {
		if stu.IsArchived() {
			out = append(out, stu.Clone())
		}
	}
	return out, nil
}

func (m *memStudents) FindArchivedBefore(_ context.Context, cutoff time.Time) ([]*student.Student, error) {
	var out []*student.Student
	for _, stu := range m.s.students {
		if stu.IsArchived() && stu.ArchivedAt.Before(cutoff) {
			out = append(out, stu.Clone())
		}
	}
	return out, nil
}

func (m *memStudents) GetByIDs(_ context.Context, ids []string) ([]*student.Student, error) {
	var out []*student.Student
	for _, id := range ids {
		if stu, ok := m.s.students[id]; ok {
			out = append(out, stu.Clone())
		}
	}
	return out, nil
}

func (m *memStudents) CountActive(ctx context.Context) (int, error) {
	active, _ := m.GetActive(ctx)
	return len(active), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Parents
// ─────────────────────────────────────────────────────────────────────────────

type memParents struct{ s *memStore }

func (m *memParents) Create(_ context.Context, p *student.Parent) error {
	m.s.parents[p.ID] = p
	return nil
}

func (m *memParents) GetByID(_ context.Context, id string) (*student.Parent, error) {
	p, ok := m.s.parents[id]
	if !ok {
		return nil, student.ErrParentNotFound
	}
	return p, nil
}

func (m *memParents) GetByPhone(_ context.Context, phone string) (*student.Parent, error) {
	for _, p := range m.s.parents {
		if p.Phone == phone {
			return p, nil
		}
	}
	return nil, student.ErrParentNotFound
}

func (m *memParents) Update(_ context.Context, p *student.Parent) error {
	m.s.parents[p.ID] = p
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Lessons
// ─────────────────────────────────────────────────────────────────────────────

type memLessons struct{ s *memStore }

func (m *memLessons) Create(_ context.Context, l *lesson.Lesson) error {
	m.s.lessons[l.ID] = l.Clone()
	return nil
}

func (m *memLessons) GetByID(_ context.Context, id string) (*lesson.Lesson, error) {
	l, ok := m.s.lessons[id]
	if !ok {
		return nil, lesson.ErrLessonNotFound
	}
	return l.Clone(), nil
}

func (m *memLessons) GetActiveByDate(_ context.Context, date time.Time) (*lesson.Lesson, error) {
	for _, l := range m.s.lessons {
		if !l.IsDeleted() && l.Date.Equal(date) {
			return l.Clone(), nil
		}
	}
	return nil, lesson.ErrLessonNotFound
}

func (m *memLessons) Update(_ context.Context, l *lesson.Lesson) error {
	if _, ok := m.s.lessons[l.ID]; !ok {
		return lesson.ErrLessonNotFound
	}
	m.s.lessons[l.ID] = l.Clone()
	return nil
}

func (m *memLessons) HardDelete(_ context.Context, id string) error {
	delete(m.s.lessons, id)
	return nil
}

func (m *memLessons) GetActiveInRange(_ context.Context, from, to time.Time) ([]*lesson.Lesson, error) {
	var out []*lesson.Lesson
	for _, l := range m.s.lessons {
		if !l.IsDeleted() && !l.Date.Before(from) && !l.Date.After(to) {
			out = append(out, l.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *memLessons) GetDeleted(_ context.Context) ([]*lesson.Lesson, error) {
	var out []*lesson.Lesson
	for _, l := range m.s.lessons {
		if l.IsDeleted() {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

func (m *memLessons) FindDeletedBefore(_ context.Context, cutoff time.Time) ([]*lesson.Lesson, error) {
	var out []*lesson.Lesson
	for _, l := range m.s.lessons {
		if l.IsDeleted() && l.DeletedAt.Before(cutoff) {
			out = append(out, l.Clone())
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Attendance
// ─────────────────────────────────────────────────────────────────────────────

type memAttendance struct{ s *memStore }

func (m *memAttendance) Create(_ context.Context, a *lesson.Attendance) error {
	m.s.attendance[pairKey(a.LessonID, a.StudentID)] = a
	return nil
}

func (m *memAttendance) Get(_ context.Context, lessonID, studentID string) (*lesson.Attendance, error) {
	a, ok := m.s.attendance[pairKey(lessonID, studentID)]
	if !ok {
		return nil, lesson.ErrAttendanceNotFound
	}
	return a, nil
}

func (m *memAttendance) Update(_ context.Context, a *lesson.Attendance) error {
	key := pairKey(a.LessonID, a.StudentID)
	if _, ok := m.s.attendance[key]; !ok {
		return lesson.ErrAttendanceNotFound
	}
	m.s.attendance[key] = a
	return nil
}

func (m *memAttendance) GetByLesson(_ context.Context, lessonID string) ([]*lesson.Attendance, error) {
	var out []*lesson.Attendance
	for key, a := range m.s.attendance {
		if strings.HasPrefix(key, lessonID+"|") {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAttendance) GetByStudent(_ context.Context, studentID string, from, to time.Time) ([]*lesson.Attendance, error) {
	var out []*lesson.Attendance
	for _, a := range m.s.attendance {
		if a.StudentID != studentID {
			continue
		}
		if les, ok := m.s.lessons[a.LessonID]; ok && les.IsDeleted() {
			continue
		}
		if !a.LessonDate.Before(from) && !a.LessonDate.After(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAttendance) DeleteByLesson(_ context.Context, lessonID string) error {
	for key := range m.s.attendance {
		if strings.HasPrefix(key, lessonID+"|") {
			delete(m.s.attendance, key)
		}
	}
	return nil
}

func (m *memAttendance) DeleteByStudent(_ context.Context, studentID string) error {
	for key, a := range m.s.attendance {
		if a.StudentID == studentID {
			delete(m.s.attendance, key)
		}
	}
	return nil
}

func (m *memAttendance) FindAbsentWithStreak(_ context.Context, minStreak int) ([]*lesson.Attendance, error) {
	var out []*lesson.Attendance
	for _, a := range m.s.attendance {
		if !a.Attended && a.ConsecutiveAbsences >= minStreak {
			out = append(out, a)
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Homework
// ─────────────────────────────────────────────────────────────────────────────

type memHomework struct{ s *memStore }

func (m *memHomework) Upsert(_ context.Context, h *lesson.Homework) error {
	key := pairKey(h.LessonID, h.StudentID)
	if prev, ok := m.s.homework[key]; ok {
		prev.Completed = h.Completed
		return nil
	}
	m.s.homework[key] = h
	return nil
}

func (m *memHomework) Get(_ context.Context, lessonID, studentID string) (*lesson.Homework, error) {
	h, ok := m.s.homework[pairKey(lessonID, studentID)]
	if !ok {
		return nil, lesson.ErrHomeworkNotFound
	}
	return h, nil
}

func (m *memHomework) GetByLesson(_ context.Context, lessonID string) ([]*lesson.Homework, error) {
	var out []*lesson.Homework
	for key, h := range m.s.homework {
		if strings.HasPrefix(key, lessonID+"|") {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memHomework) GetByStudentLessons(_ context.Context, studentID string, lessonIDs []string) ([]*lesson.Homework, error) {
	var out []*lesson.Homework
	for _, id := range lessonIDs {
		if h, ok := m.s.homework[pairKey(id, studentID)]; ok {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memHomework) Delete(_ context.Context, lessonID, studentID string) error {
	delete(m.s.homework, pairKey(lessonID, studentID))
	return nil
}

func (m *memHomework) DeleteByLesson(_ context.Context, lessonID string) error {
	for key := range m.s.homework {
		if strings.HasPrefix(key, lessonID+"|") {
			delete(m.s.homework, key)
		}
	}
	return nil
}

func (m *memHomework) DeleteByStudent(_ context.Context, studentID string) error {
	for key, h := range m.s.homework {
		if h.StudentID == studentID {
			delete(m.s.homework, key)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Participation
// ─────────────────────────────────────────────────────────────────────────────

type memParticipation struct{ s *memStore }

func (m *memParticipation) Create(_ context.Context, p *lesson.Participation) error {
	m.s.participation[pairKey(p.LessonID, p.StudentID)] = p
	return nil
}

func (m *memParticipation) Upsert(_ context.Context, p *lesson.Participation) error {
	key := pairKey(p.LessonID, p.StudentID)
	if prev, ok := m.s.participation[key]; ok {
		prev.Score = p.Score
		return nil
	}
	m.s.participation[key] = p
	return nil
}

func (m *memParticipation) Get(_ context.Context, lessonID, studentID string) (*lesson.Participation, error) {
	p, ok := m.s.participation[pairKey(lessonID, studentID)]
	if !ok {
		return nil, lesson.ErrParticipationNotFound
	}
	return p, nil
}

func (m *memParticipation) GetByLesson(_ context.Context, lessonID string) ([]*lesson.Participation, error) {
	var out []*lesson.Participation
	for key, p := range m.s.participation {
		if strings.HasPrefix(key, lessonID+"|") {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memParticipation) GetByStudentLessons(_ context.Context, studentID string, lessonIDs []string) ([]*lesson.Participation, error) {
	var out []*lesson.Participation
	for _, id := range lessonIDs {
		if p, ok := m.s.participation[pairKey(id, studentID)]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memParticipation) Delete(_ context.Context, lessonID, studentID string) error {
	delete(m.s.participation, pairKey(lessonID, studentID))
	return nil
}

func (m *memParticipation) DeleteByLesson(_ context.Context, lessonID string) error {
	for key := range m.s.participation {
		if strings.HasPrefix(key, lessonID+"|") {
			delete(m.s.participation, key)
		}
	}
	return nil
}

func (m *memParticipation) DeleteByStudent(_ context.Context, studentID string) error {
	for key, p := range m.s.participation {
		if p.StudentID == studentID {
			delete(m.s.participation, key)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Incidents
// ─────────────────────────────────────────────────────────────────────────────

type memIncidents struct{ s *memStore }

func (m *memIncidents) Create(_ context.Context, inc *behavioral.Incident) error {
	m.s.incidents[inc.ID] = inc
	return nil
}

func (m *memIncidents) GetByID(_ context.Context, id string) (*behavioral.Incident, error) {
	inc, ok := m.s.incidents[id]
	if !ok {
		return nil, behavioral.ErrIncidentNotFound
	}
	return inc, nil
}

func (m *memIncidents) Delete(_ context.Context, id string) error {
	if _, ok := m.s.incidents[id]; !ok {
		return behavioral.ErrIncidentNotFound
	}
	delete(m.s.incidents, id)
	return nil
}

func (m *memIncidents) GetByLesson(_ context.Context, lessonID string) ([]*behavioral.Incident, error) {
	var out []*behavioral.Incident
	for _, inc := range m.s.incidents {
		if inc.LessonID == lessonID {
			out = append(out, inc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memIncidents) GetByStudentInRange(_ context.Context, studentID string, from, to time.Time) ([]*behavioral.Incident, error) {
	var out []*behavioral.Incident
	for _, inc := range m.s.incidents {
		if inc.StudentID == studentID && !inc.CreatedAt.Before(from) && inc.CreatedAt.Before(to) {
			out = append(out, inc)
		}
	}
	return out, nil
}

func (m *memIncidents) CountByStudentInRange(ctx context.Context, studentID string, from, to time.Time) (int, error) {
	incs, _ := m.GetByStudentInRange(ctx, studentID, from, to)
	return len(incs), nil
}

func (m *memIncidents) DeleteByLesson(_ context.Context, lessonID string) error {
	for id, inc := range m.s.incidents {
		if inc.LessonID == lessonID {
			delete(m.s.incidents, id)
		}
	}
	return nil
}

func (m *memIncidents) DeleteByStudent(_ context.Context, studentID string) error {
	for id, inc := range m.s.incidents {
		if inc.StudentID == studentID {
			delete(m.s.incidents, id)
		}
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Deletion logs
// ─────────────────────────────────────────────────────────────────────────────

type memLogs struct{ s *memStore }

func (m *memLogs) Append(_ context.Context, entry *audit.DeletionLog) error {
	m.s.logs = append(m.s.logs, entry)
	return nil
}

func (m *memLogs) List(_ context.Context, limit int) ([]*audit.DeletionLog, error) {
	out := append([]*audit.DeletionLog(nil), m.s.logs...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Test fixtures
// ─────────────────────────────────────────────────────────────────────────────

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedStudent(s *memStore, name string) *student.Student {
	parent, _ := student.NewParent(student.NewParentParams{
		ID:       uuid.NewString(),
		FullName: name + " parent",
		Phone:    "+7" + uuid.NewString()[:8],
	})
	s.parents[parent.ID] = parent

	stu, _ := student.NewStudent(student.NewStudentParams{
		ID:       uuid.NewString(),
		FullName: name,
		ParentID: parent.ID,
	})
	s.students[stu.ID] = stu
	return stu
}

func seedLesson(s *memStore, date time.Time) *lesson.Lesson {
	les, _ := lesson.NewLesson(lesson.NewLessonParams{
		ID:   uuid.NewString(),
		Date: date,
	})
	s.lessons[les.ID] = les
	return les
}

// recordingCache captures invalidation calls for assertions.
type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Get(context.Context, string, int, int) ([]byte, error) { return nil, nil }

func (c *recordingCache) Set(context.Context, string, int, int, []byte, time.Duration) error {
	return nil
}

func (c *recordingCache) Invalidate(_ context.Context, studentID string) error {
	c.invalidated = append(c.invalidated, studentID)
	return nil
}

// collectingPublisher keeps published events for assertions.
type collectingPublisher struct {
	events []shared.Event
}

func (p *collectingPublisher) Publish(ev shared.Event) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *collectingPublisher) byType(t shared.EventType) []shared.Event {
	var out []shared.Event
	for _, ev := range p.events {
		if ev.EventType() == t {
			out = append(out, ev)
		}
	}
	return out
}
