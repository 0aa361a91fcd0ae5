package repotest

import (
	"context"
	"fmt"

	"github.com/k4sper1love/school-service/internal/models"
)

// The Seed helpers panic on failure; they only run against a fresh Store.

func (s *Store) SeedUser(email string, role models.UserRole) *models.User {
	u := &models.User{Email: email, Username: models.DefaultUsername(email), Role: role}
	if err := s.User().Create(context.Background(), u); err != nil {
		panic(fmt.Sprintf("seed user %s: %v", email, err))
	}
	return u
}

// SeedStudent creates a student-role user together with its profile.
func (s *Store) SeedStudent(email string) *models.Student {
	u := s.SeedUser(email, models.RoleStudent)
	st := &models.Student{UserID: u.ID, RegistrationDate: models.Today()}
	if err := s.Student().Create(context.Background(), st); err != nil {
		panic(fmt.Sprintf("seed student %s: %v", email, err))
	}
	st.User = *u
	return st
}

func (s *Store) SeedCourse(instructor *models.User, name string, active bool) *models.Course {
	c := &models.Course{Name: name, InstructorID: instructor.ID, IsActive: active}
	if err := s.Course().Create(context.Background(), c); err != nil {
		panic(fmt.Sprintf("seed course %s: %v", name, err))
	}
	return c
}

func (s *Store) SeedAttendance(student *models.Student, course *models.Course, present bool) *models.Attendance {
	a := &models.Attendance{StudentID: student.ID, CourseID: course.ID, Date: models.Today(), Status: present}
	if err := s.Attendance().Create(context.Background(), a); err != nil {
		panic(fmt.Sprintf("seed attendance: %v", err))
	}
	return a
}

func (s *Store) SeedRequestLog(userID *uint, endpoint, method string, status int) {
	entry := &models.APIRequestLog{UserID: userID, Endpoint: endpoint, Method: method, StatusCode: status}
	if err := s.RequestLog().Create(context.Background(), entry); err != nil {
		panic(fmt.Sprintf("seed request log: %v", err))
	}
}
