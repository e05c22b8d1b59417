package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"lecture-scheduler/backend/internal/model"
	"lecture-scheduler/backend/internal/repository"
	pkgerrors "lecture-scheduler/backend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
		user.UpdatedAt = user.CreatedAt
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByIDAndRole(_ context.Context, id, role string) (*model.User, error) {
	if u, ok := m.users[id]; ok && u.Role == role {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByRole(_ context.Context, role string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == role {
			result = append(result, *u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if course.CourseID == "" {
		course.CourseID = uuid.NewString()
	}
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now()
		course.UpdatedAt = course.CreatedAt
	}
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) GetByID(_ context.Context, id string) (*model.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.courses {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	m.courses[course.CourseID] = course
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.courses, id)
	return nil
}

// ── Mock LectureRepository ──
// 模拟部分唯一索引 (instructor_id, lecture_date) WHERE status='scheduled'
// 以及 version 乐观锁；读取总是返回副本并预加载课程与讲师

type mockLectureRepo struct {
	lectures map[string]*model.Lecture
	courses  *mockCourseRepo
	users    *mockUserRepo

	// hideNextFinds 接下来 N 次 FindScheduledConflict 返回无冲突，模拟并发竞态
	hideNextFinds int
	// staleOnUpdate 下一次 Update 返回乐观锁冲突
	staleOnUpdate bool
	findCalls     int
}

func newMockLectureRepo(courses *mockCourseRepo, users *mockUserRepo) *mockLectureRepo {
	return &mockLectureRepo{
		lectures: make(map[string]*model.Lecture),
		courses:  courses,
		users:    users,
	}
}

func (m *mockLectureRepo) hydrate(l *model.Lecture) *model.Lecture {
	cp := *l
	if l.InstructorID != nil {
		id := *l.InstructorID
		cp.InstructorID = &id
		if u, ok := m.users.users[id]; ok {
			uc := *u
			cp.Instructor = &uc
		}
	}
	cp.Course = nil
	if c, ok := m.courses.courses[l.CourseID]; ok {
		cc := *c
		cp.Course = &cc
	}
	return &cp
}

func (m *mockLectureRepo) store(l *model.Lecture) {
	cp := *l
	cp.Course, cp.Instructor = nil, nil
	if l.InstructorID != nil {
		id := *l.InstructorID
		cp.InstructorID = &id
	}
	m.lectures[cp.LectureID] = &cp
}

func (m *mockLectureRepo) violatesUniqueDay(l *model.Lecture) bool {
	if l.Status != model.LectureStatusScheduled || l.InstructorID == nil {
		return false
	}
	for _, other := range m.lectures {
		if other.LectureID == l.LectureID || !other.IsScheduled() || other.InstructorID == nil {
			continue
		}
		if *other.InstructorID == *l.InstructorID && other.LectureDate.Equal(l.LectureDate) {
			return true
		}
	}
	return false
}

func uniqueDayViolation() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: repository.LectureUniqueDayIndex}
}

func (m *mockLectureRepo) Create(_ context.Context, lecture *model.Lecture) error {
	if lecture.LectureID == "" {
		lecture.LectureID = uuid.NewString()
	}
	if m.violatesUniqueDay(lecture) {
		return uniqueDayViolation()
	}
	if lecture.Version == 0 {
		lecture.Version = 1
	}
	if lecture.CreatedAt.IsZero() {
		lecture.CreatedAt = time.Now()
	}
	if lecture.UpdatedAt.IsZero() {
		lecture.UpdatedAt = lecture.CreatedAt
	}
	m.store(lecture)
	return nil
}

func (m *mockLectureRepo) GetByID(_ context.Context, id string) (*model.Lecture, error) {
	if l, ok := m.lectures[id]; ok {
		return m.hydrate(l), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLectureRepo) List(_ context.Context, filter repository.LectureFilter) ([]model.Lecture, error) {
	var result []model.Lecture
	for _, l := range m.lectures {
		if filter.CourseID != "" && l.CourseID != filter.CourseID {
			continue
		}
		if filter.InstructorID != "" && (l.InstructorID == nil || *l.InstructorID != filter.InstructorID) {
			continue
		}
		if filter.AssignedOnly && l.InstructorID == nil {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		if filter.From != nil && l.LectureDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !l.LectureDate.Before(*filter.To) {
			continue
		}
		result = append(result, *m.hydrate(l))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].LectureDate.Equal(result[j].LectureDate) {
			return result[i].LectureDate.Before(result[j].LectureDate)
		}
		return result[i].StartTime < result[j].StartTime
	})
	return result, nil
}

func (m *mockLectureRepo) Update(_ context.Context, lecture *model.Lecture) error {
	if m.staleOnUpdate {
		m.staleOnUpdate = false
		return pkgerrors.ErrOptimisticLock
	}
	existing, ok := m.lectures[lecture.LectureID]
	if !ok || existing.Version != lecture.Version {
		return pkgerrors.ErrOptimisticLock
	}
	if m.violatesUniqueDay(lecture) {
		return uniqueDayViolation()
	}
	lecture.Version++
	m.store(lecture)
	return nil
}

func (m *mockLectureRepo) Delete(_ context.Context, id string, _ string) error {
	delete(m.lectures, id)
	return nil
}

func (m *mockLectureRepo) CountByCourse(_ context.Context, courseID string) (int64, error) {
	var n int64
	for _, l := range m.lectures {
		if l.CourseID == courseID {
			n++
		}
	}
	return n, nil
}

func (m *mockLectureRepo) FindScheduledConflict(_ context.Context, instructorID string, from, to time.Time, excludeLectureID string) (*model.Lecture, error) {
	m.findCalls++
	if m.hideNextFinds > 0 {
		m.hideNextFinds--
		return nil, nil
	}
	var found *model.Lecture
	for _, l := range m.lectures {
		if l.LectureID == excludeLectureID || !l.IsScheduled() || l.InstructorID == nil {
			continue
		}
		if *l.InstructorID != instructorID || l.LectureDate.Before(from) || !l.LectureDate.Before(to) {
			continue
		}
		if found == nil || l.CreatedAt.Before(found.CreatedAt) {
			found = l
		}
	}
	if found == nil {
		return nil, nil
	}
	return m.hydrate(found), nil
}

func (m *mockLectureRepo) CompleteFinished(_ context.Context, today time.Time, nowClock string) (int64, error) {
	var n int64
	for _, l := range m.lectures {
		if !l.IsScheduled() {
			continue
		}
		if l.LectureDate.Before(today) || (l.LectureDate.Equal(today) && l.EndTime <= nowClock) {
			l.Status = model.LectureStatusCompleted
			l.Version++
			n++
		}
	}
	return n, nil
}

// ── Mock SlotLocker ──

type mockLocker struct {
	held     map[string]string
	deny     bool
	failWith error
	acquired []string
	released []string
}

func newMockLocker() *mockLocker {
	return &mockLocker{held: make(map[string]string)}
}

func (m *mockLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if m.failWith != nil {
		return "", false, m.failWith
	}
	if m.deny {
		return "", false, nil
	}
	if _, ok := m.held[key]; ok {
		return "", false, nil
	}
	token := uuid.NewString()
	m.held[key] = token
	m.acquired = append(m.acquired, key)
	return token, true, nil
}

func (m *mockLocker) ReleaseLock(_ context.Context, key, token string) error {
	if m.held[key] == token {
		delete(m.held, key)
		m.released = append(m.released, key)
	}
	return nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	entries map[string]time.Duration
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{entries: make(map[string]time.Duration)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.entries[jti] = ttl
	return nil
}

// ── 聚合 ──

type mockRepos struct {
	users    *mockUserRepo
	courses  *mockCourseRepo
	lectures *mockLectureRepo
}

func newMockRepository() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	courses := newMockCourseRepo()
	lectures := newMockLectureRepo(courses, users)
	return &repository.Repository{
		User:    users,
		Course:  courses,
		Lecture: lectures,
	}, &mockRepos{users: users, courses: courses, lectures: lectures}
}

func newRepositoryFrom(repos *mockRepos) *repository.Repository {
	return &repository.Repository{
		User:    repos.users,
		Course:  repos.courses,
		Lecture: repos.lectures,
	}
}
