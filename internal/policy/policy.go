// Package policy holds the role based authorization rules. Every function is
// pure: a denial is an ordinary return value carrying the reason shown to the
// caller.
package policy

import "github.com/k4sper1love/school-service/internal/models"

type Actor struct {
	UserID uint
	Role   models.UserRole
}

func (a Actor) Is(role models.UserRole) bool {
	return a.Role == role
}

type Decision struct {
	Allowed bool
	Reason  string
}

func Allow() Decision {
	return Decision{Allowed: true}
}

func Deny(reason string) Decision {
	return Decision{Reason: reason}
}

// Scope describes which rows of a list an actor may see.
type Scope int

const (
	ScopeNone Scope = iota
	ScopeAll
	ScopeStudentsOnly
	ScopeByInstructor
	ScopeByStudentUser
)

const (
	ReasonCreateCourse = "Only teachers can create courses."
	ReasonUpdateCourse = "Only teachers can update courses."
	ReasonDeleteCourse = "Only teachers can delete courses."
	ReasonOwnCourse    = "You can only modify your own courses."

	ReasonCreateAttendance = "Only teachers can add attendance records."
	ReasonUpdateAttendance = "Only teachers can update attendance records."
	ReasonDeleteAttendance = "Only teachers can delete attendance records."
	ReasonViewAttendance   = "Only teachers and students can view attendance records."
	ReasonOwnCourseRecords = "You can only manage attendance records for your own courses."
	ReasonOwnAttendance    = "You can only view your own attendance records."

	ReasonCreateGrade = "Only teachers can add grades"
	ReasonUpdateGrade = "Only teachers can update grades"
	ReasonDeleteGrade = "Only teachers can delete grades"

	ReasonEnroll        = "Only students can enroll in courses."
	ReasonEnrollSelf    = "You can only enroll yourself."
	ReasonManageStudent = "Only administrators and teachers can manage students."
	ReasonDeleteStudent = "Only administrators can delete students."

	ReasonUpdateUser = "Only administrators can modify users."
	ReasonDeleteUser = "Only administrators can delete users."
)

func teacherOnly(actor Actor, reason string) Decision {
	if actor.Is(models.RoleTeacher) {
		return Allow()
	}
	return Deny(reason)
}

func instructorOnly(actor Actor, instructorID uint, roleReason, ownerReason string) Decision {
	if d := teacherOnly(actor, roleReason); !d.Allowed {
		return d
	}
	if instructorID != actor.UserID {
		return Deny(ownerReason)
	}
	return Allow()
}

func CanCreateCourse(actor Actor) Decision {
	return teacherOnly(actor, ReasonCreateCourse)
}

func CanUpdateCourse(actor Actor, course *models.Course) Decision {
	return instructorOnly(actor, course.InstructorID, ReasonUpdateCourse, ReasonOwnCourse)
}

func CanDeleteCourse(actor Actor, course *models.Course) Decision {
	return instructorOnly(actor, course.InstructorID, ReasonDeleteCourse, ReasonOwnCourse)
}

// The May checks are the role half of the instructor rules and need no record.

func MayUpdateCourses(actor Actor) Decision {
	return teacherOnly(actor, ReasonUpdateCourse)
}

func MayDeleteCourses(actor Actor) Decision {
	return teacherOnly(actor, ReasonDeleteCourse)
}

func MayUpdateAttendance(actor Actor) Decision {
	return teacherOnly(actor, ReasonUpdateAttendance)
}

func MayDeleteAttendance(actor Actor) Decision {
	return teacherOnly(actor, ReasonDeleteAttendance)
}

func CanCreateAttendance(actor Actor) Decision {
	return teacherOnly(actor, ReasonCreateAttendance)
}

// AttendanceScope decides which attendance rows an actor lists.
func AttendanceScope(actor Actor) (Scope, Decision) {
	switch actor.Role {
	case models.RoleTeacher:
		return ScopeByInstructor, Allow()
	case models.RoleStudent:
		return ScopeByStudentUser, Allow()
	}
	return ScopeNone, Deny(ReasonViewAttendance)
}

func CanViewAttendance(actor Actor, rec *models.Attendance) Decision {
	switch actor.Role {
	case models.RoleTeacher:
		if rec.Course.InstructorID != actor.UserID {
			return Deny(ReasonOwnCourseRecords)
		}
		return Allow()
	case models.RoleStudent:
		if rec.Student.UserID != actor.UserID {
			return Deny(ReasonOwnAttendance)
		}
		return Allow()
	}
	return Deny(ReasonViewAttendance)
}

func CanUpdateAttendance(actor Actor, rec *models.Attendance) Decision {
	return instructorOnly(actor, rec.Course.InstructorID, ReasonUpdateAttendance, ReasonOwnCourseRecords)
}

func CanDeleteAttendance(actor Actor, rec *models.Attendance) Decision {
	return instructorOnly(actor, rec.Course.InstructorID, ReasonDeleteAttendance, ReasonOwnCourseRecords)
}

// Grades are checked by role only, not by course ownership.
func CanCreateGrade(actor Actor) Decision {
	return teacherOnly(actor, ReasonCreateGrade)
}

func CanUpdateGrade(actor Actor) Decision {
	return teacherOnly(actor, ReasonUpdateGrade)
}

func CanDeleteGrade(actor Actor) Decision {
	return teacherOnly(actor, ReasonDeleteGrade)
}

func CanEnroll(actor Actor) Decision {
	if actor.Is(models.RoleStudent) {
		return Allow()
	}
	return Deny(ReasonEnroll)
}

// CanEnrollStudent checks the enrolling student profile belongs to the actor.
func CanEnrollStudent(actor Actor, student *models.Student) Decision {
	if d := CanEnroll(actor); !d.Allowed {
		return d
	}
	if student.UserID != actor.UserID {
		return Deny(ReasonEnrollSelf)
	}
	return Allow()
}

// UserListScope: admins see everyone, teachers see students, anyone else sees nothing.
func UserListScope(actor Actor) Scope {
	switch actor.Role {
	case models.RoleAdmin:
		return ScopeAll
	case models.RoleTeacher:
		return ScopeStudentsOnly
	}
	return ScopeNone
}

func StudentListScope(actor Actor) Scope {
	return UserListScope(actor)
}

func CanManageStudents(actor Actor) Decision {
	if actor.Is(models.RoleAdmin) || actor.Is(models.RoleTeacher) {
		return Allow()
	}
	return Deny(ReasonManageStudent)
}

func CanDeleteStudent(actor Actor) Decision {
	if actor.Is(models.RoleAdmin) {
		return Allow()
	}
	return Deny(ReasonDeleteStudent)
}

func CanUpdateUser(actor Actor) Decision {
	if actor.Is(models.RoleAdmin) {
		return Allow()
	}
	return Deny(ReasonUpdateUser)
}

func CanDeleteUser(actor Actor) Decision {
	if actor.Is(models.RoleAdmin) {
		return Allow()
	}
	return Deny(ReasonDeleteUser)
}

// CanViewUser allows admins any user, teachers any student, and everyone themselves.
func CanViewUser(actor Actor, target *models.User) bool {
	if target.ID == actor.UserID {
		return true
	}
	switch UserListScope(actor) {
	case ScopeAll:
		return true
	case ScopeStudentsOnly:
		return target.Role == models.RoleStudent
	}
	return false
}

// OwnsNotification is an ownership filter; callers report a miss as not found.
func OwnsNotification(actor Actor, n *models.Notification) bool {
	return n.UserID == actor.UserID
}

// UsesSharedListCache reports whether the shared user/student list cache
// entry may be served to the actor.
func UsesSharedListCache(actor Actor) bool {
	return actor.Is(models.RoleAdmin)
}
