package cache

import "fmt"

const (
	UserListKey       = "user_list"
	StudentListKey    = "student_list"
	CourseListKey     = "course_list"
	GradeListKey      = "grade_list"
	AttendanceListAll = "attendance_list_*"
	AttendanceAll     = "attendance_*"
	CourseAll         = "course_*"
	GradeAll          = "grade_*"
)

func UserKey(id uint) string {
	return fmt.Sprintf("user_%d", id)
}

func StudentKey(id uint) string {
	return fmt.Sprintf("student_%d", id)
}

func CourseKey(id uint) string {
	return fmt.Sprintf("course_%d", id)
}

func GradeKey(id uint) string {
	return fmt.Sprintf("grade_%d", id)
}

func AttendanceKey(id uint) string {
	return fmt.Sprintf("attendance_%d", id)
}

func AttendanceListKey(userID uint) string {
	return fmt.Sprintf("attendance_list_%d", userID)
}

func NotificationsKey(userID uint) string {
	return fmt.Sprintf("notifications_%d", userID)
}
