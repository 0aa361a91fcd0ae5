// Package repotest provides an in-memory Repository for service and handler tests.
package repotest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/k4sper1love/school-service/internal/models"
	"github.com/k4sper1love/school-service/internal/repositories"
)

// Store is an in-memory implementation of repositories.Repository.
// Transactions run the callback directly and are not rolled back.
type Store struct {
	mu sync.RWMutex

	seq           uint
	users         map[uint]models.User
	students      map[uint]models.Student
	courses       map[uint]models.Course
	enrollments   map[uint]models.Enrollment
	attendance    map[uint]models.Attendance
	grades        map[uint]models.Grade
	notifications map[uint]models.Notification
	requestLogs   []models.APIRequestLog

	// PingErr is returned by Ping when set.
	PingErr error
}

func NewStore() *Store {
	return &Store{
		users:         map[uint]models.User{},
		students:      map[uint]models.Student{},
		courses:       map[uint]models.Course{},
		enrollments:   map[uint]models.Enrollment{},
		attendance:    map[uint]models.Attendance{},
		grades:        map[uint]models.Grade{},
		notifications: map[uint]models.Notification{},
	}
}

func (s *Store) nextID() uint {
	s.seq++
	return s.seq
}

func (s *Store) User() repositories.UserRepository                 { return (*userRepo)(s) }
func (s *Store) Student() repositories.StudentRepository           { return (*studentRepo)(s) }
func (s *Store) Course() repositories.CourseRepository             { return (*courseRepo)(s) }
func (s *Store) Enrollment() repositories.EnrollmentRepository     { return (*enrollmentRepo)(s) }
func (s *Store) Attendance() repositories.AttendanceRepository     { return (*attendanceRepo)(s) }
func (s *Store) Grade() repositories.GradeRepository               { return (*gradeRepo)(s) }
func (s *Store) Notification() repositories.NotificationRepository { return (*notificationRepo)(s) }
func (s *Store) RequestLog() repositories.RequestLogRepository     { return (*requestLogRepo)(s) }

func (s *Store) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(s)
}

func (s *Store) Ping(ctx context.Context) error { return s.PingErr }
func (s *Store) Close() error                   { return nil }

// RequestLogs returns a copy of every recorded request log.
func (s *Store) RequestLogs() []models.APIRequestLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.APIRequestLog(nil), s.requestLogs...)
}

// ===== users =====

type userRepo Store

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	user.ID = s.nextID()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *userRepo) List(ctx context.Context, filters repositories.UserFilters) ([]models.User, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filters.Limit, filters.Offset), nil
}

func (r *userRepo) Update(ctx context.Context, user *models.User) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	for _, u := range s.users {
		if u.ID != user.ID && u.Email == user.Email {
			return repositories.ErrDuplicate
		}
	}
	user.UpdatedAt = time.Now()
	s.users[user.ID] = *user
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id uint) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.users, id)
	for sid, st := range s.students {
		if st.UserID == id {
			s.deleteStudentLocked(sid)
		}
	}
	for cid, c := range s.courses {
		if c.InstructorID == id {
			s.deleteCourseLocked(cid)
		}
	}
	for nid, n := range s.notifications {
		if n.UserID == id {
			delete(s.notifications, nid)
		}
	}
	for i := range s.requestLogs {
		if s.requestLogs[i].UserID != nil && *s.requestLogs[i].UserID == id {
			s.requestLogs[i].UserID = nil
		}
	}
	return nil
}

// ===== students =====

type studentRepo Store

func (s *Store) loadStudentLocked(st models.Student) models.Student {
	st.User = s.users[st.UserID]
	return st
}

func (r *studentRepo) Create(ctx context.Context, student *models.Student) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[student.UserID]; !ok {
		return repositories.ErrNotFound
	}
	for _, st := range s.students {
		if st.UserID == student.UserID {
			return repositories.ErrDuplicate
		}
	}
	student.ID = s.nextID()
	s.students[student.ID] = *student
	return nil
}

func (r *studentRepo) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	st = s.loadStudentLocked(st)
	return &st, nil
}

func (r *studentRepo) GetByUserID(ctx context.Context, userID uint) (*models.Student, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.students {
		if st.UserID == userID {
			st = s.loadStudentLocked(st)
			return &st, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *studentRepo) List(ctx context.Context, filters repositories.StudentFilters) ([]models.Student, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Student
	for _, st := range s.students {
		st = s.loadStudentLocked(st)
		if filters.UserRole != nil && st.User.Role != *filters.UserRole {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return paginate(out, filters.Limit, filters.Offset), nil
}

func (r *studentRepo) Update(ctx context.Context, student *models.Student) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[student.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *student
	stored.User = models.User{}
	s.students[student.ID] = stored
	return nil
}

func (r *studentRepo) Delete(ctx context.Context, id uint) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.students[id]; !ok {
		return repositories.ErrNotFound
	}
	s.deleteStudentLocked(id)
	return nil
}

func (s *Store) deleteStudentLocked(id uint) {
	delete(s.students, id)
	for k, v := range s.enrollments {
		if v.StudentID == id {
			delete(s.enrollments, k)
		}
	}
	for k, v := range s.attendance {
		if v.StudentID == id {
			delete(s.attendance, k)
		}
	}
	for k, v := range s.grades {
		if v.StudentID == id {
			delete(s.grades, k)
		}
	}
}

// ===== courses & enrollments =====

type courseRepo Store

func (r *courseRepo) Create(ctx context.Context, course *models.Course) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[course.InstructorID]; !ok {
		return repositories.ErrNotFound
	}
	course.ID = s.nextID()
	stored := *course
	stored.Instructor = nil
	s.courses[course.ID] = stored
	return nil
}

func (r *courseRepo) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.courses[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (r *courseRepo) List(ctx context.Context, filters repositories.CourseFilters) ([]models.Course, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Course
	for _, c := range s.courses {
		if filters.ActiveOnly && !c.IsActive {
			continue
		}
		if filters.InstructorID != nil && c.InstructorID != *filters.InstructorID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *courseRepo) Update(ctx context.Context, course *models.Course) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[course.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *course
	stored.Instructor = nil
	s.courses[course.ID] = stored
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, id uint) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.courses[id]; !ok {
		return repositories.ErrNotFound
	}
	s.deleteCourseLocked(id)
	return nil
}

func (s *Store) deleteCourseLocked(id uint) {
	delete(s.courses, id)
	for k, v := range s.enrollments {
		if v.CourseID == id {
			delete(s.enrollments, k)
		}
	}
	for k, v := range s.attendance {
		if v.CourseID == id {
			delete(s.attendance, k)
		}
	}
	for k, v := range s.grades {
		if v.CourseID == id {
			delete(s.grades, k)
		}
	}
}

type enrollmentRepo Store

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.enrollments {
		if e.StudentID == enrollment.StudentID && e.CourseID == enrollment.CourseID {
			return repositories.ErrDuplicate
		}
	}
	enrollment.ID = s.nextID()
	enrollment.EnrolledAt = time.Now()
	s.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (r *enrollmentRepo) Exists(ctx context.Context, studentID, courseID uint) (bool, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.enrollments {
		if e.StudentID == studentID && e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (r *enrollmentRepo) ListByStudent(ctx context.Context, studentID uint) ([]models.Enrollment, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Enrollment
	for _, e := range s.enrollments {
		if e.StudentID == studentID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ===== attendance =====

type attendanceRepo Store

func (s *Store) loadAttendanceLocked(a models.Attendance) models.Attendance {
	a.Student = s.loadStudentLocked(s.students[a.StudentID])
	a.Course = s.courses[a.CourseID]
	return a
}

func (r *attendanceRepo) Create(ctx context.Context, attendance *models.Attendance) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	attendance.ID = s.nextID()
	stored := *attendance
	stored.Student = models.Student{}
	stored.Course = models.Course{}
	s.attendance[attendance.ID] = stored
	return nil
}

func (r *attendanceRepo) GetByID(ctx context.Context, id uint) (*models.Attendance, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.attendance[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	a = s.loadAttendanceLocked(a)
	return &a, nil
}

func (r *attendanceRepo) List(ctx context.Context, filters repositories.AttendanceFilters) ([]models.Attendance, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Attendance
	for _, a := range s.attendance {
		a = s.loadAttendanceLocked(a)
		if filters.InstructorID != nil && a.Course.InstructorID != *filters.InstructorID {
			continue
		}
		if filters.StudentUserID != nil && a.Student.UserID != *filters.StudentUserID {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *attendanceRepo) Update(ctx context.Context, attendance *models.Attendance) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attendance[attendance.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *attendance
	stored.Student = models.Student{}
	stored.Course = models.Course{}
	s.attendance[attendance.ID] = stored
	return nil
}

func (r *attendanceRepo) Delete(ctx context.Context, id uint) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attendance[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.attendance, id)
	return nil
}

// ===== grades =====

type gradeRepo Store

func (r *gradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	grade.ID = s.nextID()
	stored := *grade
	stored.Student, stored.Course, stored.Teacher = nil, nil, nil
	s.grades[grade.ID] = stored
	return nil
}

func (r *gradeRepo) GetByID(ctx context.Context, id uint) (*models.Grade, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grades[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	st := s.loadStudentLocked(s.students[g.StudentID])
	c := s.courses[g.CourseID]
	g.Student, g.Course = &st, &c
	return &g, nil
}

func (r *gradeRepo) List(ctx context.Context) ([]models.Grade, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Grade, 0, len(s.grades))
	for _, g := range s.grades {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *gradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grades[grade.ID]; !ok {
		return repositories.ErrNotFound
	}
	stored := *grade
	stored.Student, stored.Course, stored.Teacher = nil, nil, nil
	s.grades[grade.ID] = stored
	return nil
}

func (r *gradeRepo) Delete(ctx context.Context, id uint) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grades[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.grades, id)
	return nil
}

// ===== notifications =====

type notificationRepo Store

func (r *notificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createNotificationLocked(notification)
	return nil
}

func (s *Store) createNotificationLocked(n *models.Notification) {
	n.ID = s.nextID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}
	s.notifications[n.ID] = *n
}

func (r *notificationRepo) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range notifications {
		s.createNotificationLocked(n)
	}
	return nil
}

func (r *notificationRepo) GetForUser(ctx context.Context, id, userID uint) (*models.Notification, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return nil, repositories.ErrNotFound
	}
	return &n, nil
}

func (r *notificationRepo) ListByUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *notificationRepo) Update(ctx context.Context, notification *models.Notification) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[notification.ID]; !ok {
		return repositories.ErrNotFound
	}
	s.notifications[notification.ID] = *notification
	return nil
}

func (r *notificationRepo) DeleteForUser(ctx context.Context, id, userID uint) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return repositories.ErrNotFound
	}
	delete(s.notifications, id)
	return nil
}

// ===== request logs =====

type requestLogRepo Store

func (r *requestLogRepo) Create(ctx context.Context, entry *models.APIRequestLog) error {
	s := (*Store)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = s.nextID()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	s.requestLogs = append(s.requestLogs, *entry)
	return nil
}

func (r *requestLogRepo) CountsByEndpoint(ctx context.Context, filter models.AnalyticsFilter) ([]models.EndpointCount, error) {
	s := (*Store)(r)
	s.mu.RLock()
	defer s.mu.RUnlock()
	method := strings.ToUpper(filter.Method)
	counts := map[string]int64{}
	var order []string
	for _, l := range s.requestLogs {
		if filter.UserID != nil && (l.UserID == nil || *l.UserID != *filter.UserID) {
			continue
		}
		if method != "" && l.Method != method {
			continue
		}
		if _, seen := counts[l.Endpoint]; !seen {
			order = append(order, l.Endpoint)
		}
		counts[l.Endpoint]++
	}
	out := make([]models.EndpointCount, 0, len(order))
	for _, endpoint := range order {
		out = append(out, models.EndpointCount{Endpoint: endpoint, RequestCount: counts[endpoint]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RequestCount > out[j].RequestCount })
	return out, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
