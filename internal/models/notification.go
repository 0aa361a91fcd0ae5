package models

import "time"

type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user" gorm:"not null;index"`
	User      *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Message   string    `json:"message" gorm:"type:text;not null"`
	Read      bool      `json:"read" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (Notification) TableName() string {
	return "notifications"
}

// APIRequestLog is written once per /api/ request and never mutated.
type APIRequestLog struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	UserID     *uint     `json:"user" gorm:"index"`
	User       *User     `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL"`
	Endpoint   string    `json:"endpoint" gorm:"not null;size:255;index"`
	Method     string    `json:"method" gorm:"not null;size:10"`
	Timestamp  time.Time `json:"timestamp" gorm:"autoCreateTime"`
	StatusCode int       `json:"status_code"`
	IPAddress  *string   `json:"ip_address" gorm:"size:45"`
	UserAgent  *string   `json:"user_agent" gorm:"type:text"`
}

func (APIRequestLog) TableName() string {
	return "api_request_logs"
}

// EndpointCount is one row of the analytics aggregation.
type EndpointCount struct {
	Endpoint     string `json:"endpoint"`
	RequestCount int64  `json:"request_count"`
}

// AllModels lists every persisted model in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Student{},
		&Course{},
		&Enrollment{},
		&Attendance{},
		&Grade{},
		&Notification{},
		&APIRequestLog{},
	}
}
