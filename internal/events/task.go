package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TaskKind string

const (
	KindAttendanceAbsent      TaskKind = "attendance.absent"
	KindGradeCreated          TaskKind = "grade.created"
	KindCourseCreated         TaskKind = "course.created"
	KindStudentProfileUpdated TaskKind = "student.profile_updated"
)

// Recipient is a user reachable by mail and by in-app notification.
type Recipient struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

// Task is the notification payload carried over the queue. One task may
// address many recipients.
type Task struct {
	ID         string      `json:"id"`
	Kind       TaskKind    `json:"kind"`
	Recipients []Recipient `json:"recipients"`
	Subject    string      `json:"subject"`
	Body       string      `json:"body"`
	CreatedAt  time.Time   `json:"created_at"`
}

func newTask(kind TaskKind, subject, body string, recipients ...Recipient) Task {
	return Task{
		ID:         uuid.NewString(),
		Kind:       kind,
		Recipients: recipients,
		Subject:    subject,
		Body:       body,
		CreatedAt:  time.Now().UTC(),
	}
}

func AbsenceTask(to Recipient, courseName string) Task {
	return newTask(KindAttendanceAbsent,
		"Attendance Alert",
		fmt.Sprintf("You have been marked absent in %s. Please contact your teacher.", courseName),
		to)
}

func GradeTask(to Recipient, courseName, grade string) Task {
	return newTask(KindGradeCreated,
		"New Grade",
		fmt.Sprintf("You received a new grade \"%s\" in %s.", grade, courseName),
		to)
}

// NewCourseTask carries the whole recipient list in a single task.
func NewCourseTask(recipients []Recipient, courseName string) Task {
	return newTask(KindCourseCreated,
		"New Course Available",
		fmt.Sprintf("A new course \"%s\" has been added.", courseName),
		recipients...)
}

func ProfileUpdatedTask(to Recipient) Task {
	return newTask(KindStudentProfileUpdated,
		"Profile Updated",
		"Your student profile has been updated.",
		to)
}
