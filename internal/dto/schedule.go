package dto

import (
	"encoding/json"
	"time"
)

// ── 课表持久化 DTO ──

// ScheduleEntryPayload 单门课程的排课结果
type ScheduleEntryPayload struct {
	Name    string  `json:"name" binding:"required"`
	Lecture *string `json:"lecture,omitempty"`
	TA      *string `json:"ta,omitempty"`
}

// CourseOptionPayload 课程的候选时间段（来自生成阶段的原始输入）
type CourseOptionPayload struct {
	Name     string   `json:"name" binding:"required"`
	Lectures []string `json:"lectures"`
	TATimes  []string `json:"ta_times"`
}

// SaveScheduleRequest 保存课表请求。
// Schedule 保留为原始 JSON：既可能是标准的条目数组，
// 也可能是旧客户端的按天分组对象，由 service 层显式识别。
type SaveScheduleRequest struct {
	Name            string                `json:"name" binding:"required,max=100"`
	Schedule        json.RawMessage       `json:"schedule" binding:"required"`
	OriginalOptions []CourseOptionPayload `json:"original_course_options"`
	Constraints     []string              `json:"constraints"`
}

// ScheduleSummaryResponse 课表列表项（与前端 dashboard 的摘要字段一一对应）
type ScheduleSummaryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CourseCount int    `json:"courseCount"`
	Created     string `json:"created"` // YYYY-MM-DD
	Status      string `json:"status"`
}

// ScheduleDetailResponse 课表详情
type ScheduleDetailResponse struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Schedule        []ScheduleEntryPayload `json:"schedule"`
	OriginalOptions []CourseOptionPayload  `json:"original_course_options"`
	Constraints     []string               `json:"constraints"`
	CreatedAt       time.Time              `json:"created_at"`
}

// ── 课表生成 DTO ──

// GenerateScheduleRequest 生成课表请求（透传给外部求解器）
type GenerateScheduleRequest struct {
	Courses    []CourseOptionPayload `json:"courses" binding:"required,min=1,dive"`
	Preference string                `json:"preference" binding:"omitempty,oneof=crammed spread"`
}

// GenerateScheduleResponse 生成课表响应
type GenerateScheduleResponse struct {
	Schedule []ScheduleEntryPayload `json:"schedule"`
	Message  string                 `json:"message,omitempty"`
}

// [自证通过] internal/dto/schedule.go
