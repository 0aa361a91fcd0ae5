package models

import "encoding/json"

type Attendance struct {
	ID        uint    `json:"id" gorm:"primaryKey"`
	StudentID uint    `json:"-" gorm:"not null;index"`
	Student   Student `json:"student" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	CourseID  uint    `json:"-" gorm:"not null;index"`
	Course    Course  `json:"course" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Date      Date    `json:"date" gorm:"not null"`
	Status    bool    `json:"status" gorm:"not null"`
}

func (Attendance) TableName() string {
	return "attendance"
}

func (a Attendance) StatusLabel() string {
	if a.Status {
		return "Present"
	}
	return "Absent"
}

func (a Attendance) MarshalJSON() ([]byte, error) {
	type alias Attendance
	return json.Marshal(struct {
		alias
		StatusLabel string `json:"status_label"`
	}{alias(a), a.StatusLabel()})
}

type Grade struct {
	ID        uint     `json:"id" gorm:"primaryKey"`
	StudentID uint     `json:"student" gorm:"not null;index"`
	Student   *Student `json:"-" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
	CourseID  uint     `json:"course" gorm:"not null;index"`
	Course    *Course  `json:"-" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	Grade     string   `json:"grade" gorm:"not null;size:2"`
	Comment   *string  `json:"comment" gorm:"type:text"`
	Date      Date     `json:"date" gorm:"not null"`
	TeacherID uint     `json:"teacher" gorm:"not null;index"`
	Teacher   *User    `json:"-" gorm:"foreignKey:TeacherID;constraint:OnDelete:CASCADE"`
}

func (Grade) TableName() string {
	return "grades"
}
