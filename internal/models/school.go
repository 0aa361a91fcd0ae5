package models

import "time"

type Student struct {
	ID               uint  `json:"id" gorm:"primaryKey"`
	UserID           uint  `json:"user_id" gorm:"uniqueIndex;not null"`
	User             User  `json:"user" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	DOB              *Date `json:"dob"`
	RegistrationDate Date  `json:"registration_date" gorm:"not null"`
}

func (Student) TableName() string {
	return "students"
}

type Course struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"not null;size:255"`
	Description  string `json:"description" gorm:"type:text"`
	InstructorID uint   `json:"instructor" gorm:"not null;index"`
	Instructor   *User  `json:"-" gorm:"foreignKey:InstructorID;constraint:OnDelete:CASCADE"`
	IsActive     bool   `json:"is_active" gorm:"not null;index"`
}

func (Course) TableName() string {
	return "courses"
}

type Enrollment struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	StudentID  uint      `json:"student" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	Student    *Student  `json:"-" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	CourseID   uint      `json:"course" gorm:"not null;uniqueIndex:idx_enrollment_student_course"`
	Course     *Course   `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	EnrolledAt time.Time `json:"enrolled_at" gorm:"autoCreateTime"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
