package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ── JSONB 自定义类型 ──

// ScheduleEntry 活动课表中的一条课程记录
// lecture/ta 为时间槽描述符（如 "Mon 9-11"），未选中一侧为 null
type ScheduleEntry struct {
	Name    string  `json:"name"`
	Lecture *string `json:"lecture"`
	TA      *string `json:"ta"`
}

// ScheduleEntries 对应 PostgreSQL JSONB 的课表数组，实现 GORM Scanner/Valuer 接口
type ScheduleEntries []ScheduleEntry

// Scan 将 JSONB 文本解析为 ScheduleEntries
func (e *ScheduleEntries) Scan(src interface{}) error {
	return scanJSON(src, e, "ScheduleEntries")
}

// Value 将 ScheduleEntries 序列化为 JSONB 文本
func (e ScheduleEntries) Value() (driver.Value, error) {
	if e == nil {
		return "[]", nil
	}
	return json.Marshal(e)
}

// CourseOption 一门课程在生成前提供的全部备选时段
type CourseOption struct {
	Name     string   `json:"name"`
	Lectures []string `json:"lectures"`
	TATimes  []string `json:"ta_times"`
}

// CourseOptions 对应 JSONB 的原始课程选项池
type CourseOptions []CourseOption

func (o *CourseOptions) Scan(src interface{}) error {
	return scanJSON(src, o, "CourseOptions")
}

func (o CourseOptions) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	return json.Marshal(o)
}

// ConstraintList 对应 JSONB 的用户约束列表（仅透传存储，不在本服务内解析）
type ConstraintList []string

func (l *ConstraintList) Scan(src interface{}) error {
	return scanJSON(src, l, "ConstraintList")
}

func (l ConstraintList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// scanJSON JSONB 扫描公共逻辑：接受 []byte/string，nil 置零值
func scanJSON(src, dst interface{}, typeName string) error {
	if src == nil {
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("%s.Scan: unsupported type %T", typeName, src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}

// SavedSchedule 已保存课表 — 对应 saved_schedules
type SavedSchedule struct {
	ScheduleID            string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"schedule_id"`
	UserID                string          `gorm:"type:uuid;not null"                             json:"user_id"`
	ScheduleName          string          `gorm:"type:varchar(100);not null"                     json:"schedule_name"`
	ScheduleData          ScheduleEntries `gorm:"type:jsonb;not null;default:'[]'"               json:"schedule_data"`
	OriginalCourseOptions CourseOptions   `gorm:"type:jsonb;not null;default:'[]'"               json:"original_course_options"`
	ConstraintsData       ConstraintList  `gorm:"type:jsonb;not null;default:'[]'"               json:"constraints_data"`
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (SavedSchedule) TableName() string { return "saved_schedules" }

// [自证通过] internal/model/saved_schedule.go
