package dto

import "encoding/json"

// ── 编辑会话 DTO ──

// OpenSessionRequest 打开编辑会话请求。
// 二选一：指定已保存课表的 ScheduleID，或直接内联一份课表数据。
type OpenSessionRequest struct {
	ScheduleID      string                `json:"schedule_id" binding:"omitempty,uuid"`
	Schedule        json.RawMessage       `json:"schedule" binding:"omitempty"`
	OriginalOptions []CourseOptionPayload `json:"original_course_options"`
}

// SelectSlotRequest 选中课程块请求
type SelectSlotRequest struct {
	SlotKey string `json:"slot_key" binding:"required"`
}

// ArmSlotRequest 进入移动模式请求
type ArmSlotRequest struct {
	SlotKey string `json:"slot_key" binding:"required"`
}

// MoveSlotRequest 确认移动请求
type MoveSlotRequest struct {
	CandidateKey string `json:"candidate_key" binding:"required"`
}

// SaveSessionRequest 保存会话内课表请求
type SaveSessionRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// PlacedSlotResponse 网格中的一个课程块
type PlacedSlotResponse struct {
	Key        string `json:"key"`
	Day        string `json:"day"`
	StartHour  int    `json:"start_hour"`
	EndHour    int    `json:"end_hour"`
	CourseName string `json:"course_name"`
	Type       string `json:"type"`
	Color      string `json:"color"`
}

// MoveCandidateResponse 可移入的候选时间段
type MoveCandidateResponse struct {
	Key        string `json:"key"`
	Day        string `json:"day"`
	StartHour  int    `json:"start_hour"`
	EndHour    int    `json:"end_hour"`
	Descriptor string `json:"descriptor"`
}

// SessionResponse 编辑会话快照
type SessionResponse struct {
	SessionID   string                  `json:"session_id"`
	State       string                  `json:"state"`
	Schedule    []ScheduleEntryPayload  `json:"schedule"`
	Slots       []PlacedSlotResponse    `json:"slots"`
	SelectedKey string                  `json:"selected_key,omitempty"`
	Candidates  []MoveCandidateResponse `json:"candidates,omitempty"`
}

// [自证通过] internal/dto/editor.go
