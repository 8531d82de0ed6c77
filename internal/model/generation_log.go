package model

import "time"

// ScheduleGenerationLog 课表生成/保存活动记录 — 对应 schedule_generation_logs（纯审计日志）
type ScheduleGenerationLog struct {
	LogID            string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	UserID           string    `gorm:"type:uuid;not null"                             json:"user_id"`
	ScheduleID       *string   `gorm:"type:uuid"                                      json:"schedule_id,omitempty"`
	CoursesCount     int       `gorm:"not null;default:0"                             json:"courses_count"`
	ConstraintsCount int       `gorm:"not null;default:0"                             json:"constraints_count"`
	GenerationTimeMs int       `gorm:"not null;default:0"                             json:"generation_time_ms"`
	ScheduleType     string    `gorm:"type:varchar(20);not null;default:'generated'"  json:"schedule_type"` // generated | saved
	Success          bool      `gorm:"not null;default:true"                          json:"success"`
	ErrorMessage     *string   `gorm:"type:varchar(500)"                              json:"error_message,omitempty"`
	CreatedAt        time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (ScheduleGenerationLog) TableName() string { return "schedule_generation_logs" }

// [自证通过] internal/model/generation_log.go
