package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"timegrid/backend/config"
	"timegrid/backend/internal/model"
	"timegrid/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock SavedScheduleRepository ──

type mockSavedScheduleRepo struct {
	schedules map[string]*model.SavedSchedule
	seq       int
	failNext  error // 下一次写操作返回的错误（模拟持久化失败）
}

func newMockSavedScheduleRepo() *mockSavedScheduleRepo {
	return &mockSavedScheduleRepo{schedules: make(map[string]*model.SavedSchedule)}
}

func (m *mockSavedScheduleRepo) Create(_ context.Context, schedule *model.SavedSchedule) error {
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.seq++
	if schedule.ScheduleID == "" {
		schedule.ScheduleID = fmt.Sprintf("sched-%d", m.seq)
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = time.Now()
	}
	m.schedules[schedule.ScheduleID] = schedule
	return nil
}

func (m *mockSavedScheduleRepo) GetByID(_ context.Context, id string) (*model.SavedSchedule, error) {
	if s, ok := m.schedules[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSavedScheduleRepo) ListByUser(_ context.Context, userID string, limit int) ([]model.SavedSchedule, error) {
	var result []model.SavedSchedule
	for _, s := range m.schedules {
		if s.UserID == userID {
			result = append(result, *s)
		}
	}
	// 按创建时间倒序
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].CreatedAt.After(result[i].CreatedAt) {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *mockSavedScheduleRepo) CountByUser(_ context.Context, userID string) (int64, error) {
	var total int64
	for _, s := range m.schedules {
		if s.UserID == userID {
			total++
		}
	}
	return total, nil
}

func (m *mockSavedScheduleRepo) Delete(_ context.Context, id string) error {
	delete(m.schedules, id)
	return nil
}

// ── Mock GenerationLogRepository ──

type mockGenerationLogRepo struct {
	logs []*model.ScheduleGenerationLog
	seq  int
}

func newMockGenerationLogRepo() *mockGenerationLogRepo {
	return &mockGenerationLogRepo{}
}

func (m *mockGenerationLogRepo) Create(_ context.Context, log *model.ScheduleGenerationLog) error {
	m.seq++
	if log.LogID == "" {
		log.LogID = fmt.Sprintf("log-%d", m.seq)
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockGenerationLogRepo) ListRecentByUser(_ context.Context, userID string, limit int) ([]model.ScheduleGenerationLog, error) {
	var result []model.ScheduleGenerationLog
	for i := len(m.logs) - 1; i >= 0; i-- {
		if m.logs[i].UserID == userID {
			result = append(result, *m.logs[i])
			if len(result) == limit {
				break
			}
		}
	}
	return result, nil
}

func (m *mockGenerationLogRepo) CountByUser(_ context.Context, userID string) (int64, error) {
	var total int64
	for _, l := range m.logs {
		if l.UserID == userID {
			total++
		}
	}
	return total, nil
}

func (m *mockGenerationLogRepo) CountByUserSince(_ context.Context, userID string, since time.Time) (int64, error) {
	var total int64
	for _, l := range m.logs {
		if l.UserID == userID && !l.CreatedAt.Before(since) {
			total++
		}
	}
	return total, nil
}

// ── 测试辅助 ──

func newTestRepository() (*repository.Repository, *mockUserRepo, *mockSavedScheduleRepo, *mockGenerationLogRepo) {
	userRepo := newMockUserRepo()
	scheduleRepo := newMockSavedScheduleRepo()
	logRepo := newMockGenerationLogRepo()
	return &repository.Repository{
		User:          userRepo,
		SavedSchedule: scheduleRepo,
		GenerationLog: logRepo,
	}, userRepo, scheduleRepo, logRepo
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-key-for-unit-testing-2026",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
		Editor: config.EditorConfig{
			MinHour:       7,
			MaxHour:       22,
			SessionTTL:    4 * time.Hour,
			AllowFreeScan: false,
		},
		Cache: config.CacheConfig{
			KeyPrefix:     "cs",
			ListTTL:       time.Hour,
			DetailTTL:     24 * time.Hour,
			SaveListTTL:   5 * time.Minute,
			NearExpiry:    30 * time.Second,
			PrefetchCount: 5,
		},
	}
}

func strPtr(s string) *string { return &s }

// [自证通过] internal/service/mock_repos_test.go
