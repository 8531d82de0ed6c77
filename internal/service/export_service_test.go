package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"timegrid/backend/pkg/cache"
)

func setupTestExportService(t *testing.T) (ExportService, string) {
	t.Helper()
	cfg := testConfig()
	repo, _, _, _ := newTestRepository()
	cacheSvc := cache.NewService(cache.NewMemoryStore(), &cfg.Cache, zap.NewNop())
	scheduleSvc := NewScheduleService(cfg, repo, cacheSvc, zap.NewNop())

	detail, err := scheduleSvc.Save(context.Background(), "user-1", saveRequest("秋季课表"))
	if err != nil {
		t.Fatalf("前置保存失败: %v", err)
	}
	return NewExportService(cfg, scheduleSvc, zap.NewNop()), detail.ID
}

func TestExportXLSX(t *testing.T) {
	svc, scheduleID := setupTestExportService(t)

	buf, filename, err := svc.ExportXLSX(context.Background(), "user-1", scheduleID)
	if err != nil {
		t.Fatalf("ExportXLSX 应成功: %v", err)
	}
	if filename != "秋季课表.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}
	// xlsx 是 zip 容器，以 PK 开头
	if buf.Len() < 4 || buf.Bytes()[0] != 'P' || buf.Bytes()[1] != 'K' {
		t.Errorf("导出内容应为有效的 xlsx 文件，长度 %d", buf.Len())
	}
}

func TestExportICS(t *testing.T) {
	svc, scheduleID := setupTestExportService(t)

	buf, filename, err := svc.ExportICS(context.Background(), "user-1", scheduleID)
	if err != nil {
		t.Fatalf("ExportICS 应成功: %v", err)
	}
	if filename != "秋季课表.ics" {
		t.Errorf("文件名不符: %s", filename)
	}

	content := buf.String()
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"CS101 (Lecture)",
		"CS101 (Practice)",
		"RRULE:FREQ=WEEKLY",
		"END:VCALENDAR",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("ICS 输出缺少 %q", want)
		}
	}
}

func TestExport_OtherUserRejected(t *testing.T) {
	svc, scheduleID := setupTestExportService(t)

	if _, _, err := svc.ExportXLSX(context.Background(), "user-2", scheduleID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("他人课表导出应返回 ErrScheduleNotFound，实际: %v", err)
	}
	if _, _, err := svc.ExportICS(context.Background(), "user-2", scheduleID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("他人课表导出应返回 ErrScheduleNotFound，实际: %v", err)
	}
}

func TestNextWeekdayAt(t *testing.T) {
	// 2026-08-31 是周一
	monday := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	wed := nextWeekdayAt(monday, "Wed", 9)
	if wed.Weekday() != time.Wednesday || wed.Hour() != 9 || wed.Day() != 2 {
		t.Errorf("下一个周三 9 点计算错误: %v", wed)
	}

	// 当天即目标星期时取当天
	mon := nextWeekdayAt(monday, "Mon", 9)
	if mon.Day() != 31 || mon.Hour() != 9 {
		t.Errorf("目标为当天时应取当天: %v", mon)
	}
}

// [自证通过] internal/service/export_service_test.go
