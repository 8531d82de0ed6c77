package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timegrid/backend/config"
	"timegrid/backend/internal/dto"
	"timegrid/backend/internal/model"
)

var (
	ErrSessionNotFound = errors.New("编辑会话不存在或已过期")
	ErrEmptySession    = errors.New("编辑会话缺少课表数据")
)

// EditorService 课表编辑会话业务接口。每个会话持有一份课表快照
// 和一台移动状态机，所有改动仅存在于会话内，直到显式保存。
type EditorService interface {
	Open(ctx context.Context, userID string, req *dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	Select(ctx context.Context, userID, sessionID string, req *dto.SelectSlotRequest) (*dto.SessionResponse, error)
	Arm(ctx context.Context, userID, sessionID string, req *dto.ArmSlotRequest) (*dto.SessionResponse, error)
	Move(ctx context.Context, userID, sessionID string, req *dto.MoveSlotRequest) (*dto.SessionResponse, error)
	Cancel(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	Save(ctx context.Context, userID, sessionID string, req *dto.SaveSessionRequest) (*dto.ScheduleDetailResponse, error)
	Close(ctx context.Context, userID, sessionID string) error
}

// editorSession 一个进行中的编辑会话。
// mu 保护 engine：状态机的修改与快照读取必须互斥，
// 否则并发请求会读到正在重建的网格。
type editorSession struct {
	id         string
	userID     string
	mu         sync.Mutex
	engine     *MoveEngine
	options    model.CourseOptions
	lastAccess time.Time
}

type editorService struct {
	cfg       *config.Config
	schedules ScheduleService
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[string]*editorSession
	now      func() time.Time
}

// NewEditorService 创建 EditorService 实例
func NewEditorService(cfg *config.Config, schedules ScheduleService, logger *zap.Logger) EditorService {
	return &editorService{
		cfg:       cfg,
		schedules: schedules,
		logger:    logger,
		sessions:  make(map[string]*editorSession),
		now:       time.Now,
	}
}

// Open 打开编辑会话：加载已保存课表（经详情缓存），或接受内联课表。
// 原始课程选项池在会话生命周期内固定不变。
func (s *editorService) Open(ctx context.Context, userID string, req *dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	var (
		entries model.ScheduleEntries
		options model.CourseOptions
	)

	switch {
	case req.ScheduleID != "":
		detail, err := s.schedules.Get(ctx, userID, req.ScheduleID)
		if err != nil {
			return nil, err
		}
		entries = entriesFromPayload(detail.Schedule)
		options = optionsFromPayload(detail.OriginalOptions)
	case len(req.Schedule) > 0:
		decoded, _, err := DecodeScheduleDocument(req.Schedule)
		if err != nil {
			return nil, err
		}
		entries = decoded
		options = optionsFromPayload(req.OriginalOptions)
	default:
		return nil, ErrEmptySession
	}

	sess := &editorSession{
		id:         uuid.NewString(),
		userID:     userID,
		engine:     NewMoveEngine(entries, options, s.cfg.Editor.MinHour, s.cfg.Editor.MaxHour, s.cfg.Editor.AllowFreeScan),
		options:    options,
		lastAccess: s.now(),
	}

	s.mu.Lock()
	s.purgeExpiredLocked()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.Info("编辑会话已打开",
		zap.String("session_id", sess.id),
		zap.String("user_id", userID),
		zap.Int("entries", len(entries)))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return snapshot(sess), nil
}

func (s *editorService) Get(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.touch(userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return snapshot(sess), nil
}

func (s *editorService) Select(ctx context.Context, userID, sessionID string, req *dto.SelectSlotRequest) (*dto.SessionResponse, error) {
	sess, err := s.touch(userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.engine.Select(req.SlotKey); err != nil {
		return nil, err
	}
	return snapshot(sess), nil
}

// Arm 进入移动模式。重复对已 armed 的同一块发起 Arm 视为取消，
// 与双击切换的交互习惯保持一致。
func (s *editorService) Arm(ctx context.Context, userID, sessionID string, req *dto.ArmSlotRequest) (*dto.SessionResponse, error) {
	sess, err := s.touch(userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.engine.State() == StateArmed && sess.engine.SelectedKey() == req.SlotKey {
		sess.engine.Cancel()
		return snapshot(sess), nil
	}
	if _, err := sess.engine.Arm(req.SlotKey); err != nil {
		return nil, err
	}
	return snapshot(sess), nil
}

func (s *editorService) Move(ctx context.Context, userID, sessionID string, req *dto.MoveSlotRequest) (*dto.SessionResponse, error) {
	sess, err := s.touch(userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.engine.Move(req.CandidateKey); err != nil {
		return nil, err
	}
	return snapshot(sess), nil
}

func (s *editorService) Cancel(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.touch(userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.engine.Cancel()
	return snapshot(sess), nil
}

// Save 将会话内的当前课表持久化。保存失败时会话状态不变，
// 用户的编辑结果不丢失；成功后会话保持打开，可继续编辑。
func (s *editorService) Save(ctx context.Context, userID, sessionID string, req *dto.SaveSessionRequest) (*dto.ScheduleDetailResponse, error) {
	sess, err := s.touch(userID, sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	raw, err := json.Marshal(entriesToPayload(sess.engine.Entries()))
	options := sess.options
	sess.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.schedules.Save(ctx, userID, &dto.SaveScheduleRequest{
		Name:            req.Name,
		Schedule:        raw,
		OriginalOptions: optionsToPayload(options),
	})
}

// Close 显式关闭会话
func (s *editorService) Close(ctx context.Context, userID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	if !ok || sess.userID != userID {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

// touch 取会话并刷新活跃时间；他人会话与不存在同样返回 ErrSessionNotFound
func (s *editorService) touch(userID, sessionID string) (*editorSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.userID != userID {
		return nil, ErrSessionNotFound
	}
	sess.lastAccess = s.now()
	return sess, nil
}

// purgeExpiredLocked 清理闲置超过 TTL 的会话，调用方须持有 s.mu
func (s *editorService) purgeExpiredLocked() {
	deadline := s.now().Add(-s.cfg.Editor.SessionTTL)
	for id, sess := range s.sessions {
		if sess.lastAccess.Before(deadline) {
			delete(s.sessions, id)
		}
	}
}

// snapshot 构造会话当前状态的响应
func snapshot(sess *editorSession) *dto.SessionResponse {
	engine := sess.engine

	slots := engine.Grid().Slots()
	slotViews := make([]dto.PlacedSlotResponse, 0, len(slots))
	for _, slot := range slots {
		slotViews = append(slotViews, dto.PlacedSlotResponse{
			Key:        slot.Key,
			Day:        slot.Day,
			StartHour:  slot.StartHour,
			EndHour:    slot.EndHour,
			CourseName: slot.CourseName,
			Type:       string(slot.Type),
			Color:      slot.Color,
		})
	}

	var candidateViews []dto.MoveCandidateResponse
	for _, c := range engine.Candidates() {
		candidateViews = append(candidateViews, dto.MoveCandidateResponse{
			Key:        c.Key,
			Day:        c.Interval.Day,
			StartHour:  c.Interval.Start,
			EndHour:    c.Interval.End,
			Descriptor: c.Descriptor,
		})
	}

	return &dto.SessionResponse{
		SessionID:   sess.id,
		State:       string(engine.State()),
		Schedule:    entriesToPayload(engine.Entries()),
		Slots:       slotViews,
		SelectedKey: engine.SelectedKey(),
		Candidates:  candidateViews,
	}
}

// [自证通过] internal/service/editor_service.go
