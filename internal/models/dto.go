package models

// Request payloads. Field names follow the public JSON API.

type UserCreateRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"omitempty,max=150"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Role     string `json:"role" validate:"omitempty,role"`
}

type UserUpdateRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Username string `json:"username" validate:"required,max=150"`
	Role     string `json:"role" validate:"required,role"`
}

type TokenRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Access string `json:"access"`
}

type StudentCreateRequest struct {
	User uint    `json:"user" validate:"required"`
	DOB  *string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
}

type StudentUpdateRequest struct {
	DOB *string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
}

type CourseRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=10000"`
	IsActive    *bool  `json:"is_active"`
}

type EnrollmentRequest struct {
	Student uint `json:"student"`
	Course  uint `json:"course" validate:"required"`
}

type AttendanceCreateRequest struct {
	Student uint  `json:"student" validate:"required"`
	Course  uint  `json:"course" validate:"required"`
	Status  *bool `json:"status" validate:"required"`
}

type AttendanceUpdateRequest struct {
	Status *bool `json:"status" validate:"required"`
}

type GradeRequest struct {
	Student uint    `json:"student" validate:"required"`
	Course  uint    `json:"course" validate:"required"`
	Grade   string  `json:"grade" validate:"required,gradecode"`
	Comment *string `json:"comment"`
}

type NotificationCreateRequest struct {
	Message string `json:"message" validate:"required,max=5000"`
}

// NotificationUpdateRequest is a partial update; nil fields are left alone.
type NotificationUpdateRequest struct {
	Message *string `json:"message" validate:"omitnil,required,max=5000"`
	Read    *bool   `json:"read"`
}

type AnalyticsFilter struct {
	UserID *uint
	Method string
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type DetailResponse struct {
	Detail string `json:"detail"`
}
