package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"timegrid/backend/config"
)

// ── 读穿缓存服务 ────────────────────────────────────────────
//
// 职责：在业务层与持久化后端（Redis）之间提供带 TTL 的读穿缓存，
// 以及两类派生行为：
//   - 临近过期后台刷新（stale-while-revalidate）：命中且剩余寿命低于
//     near_expiry 阈值时立即返回旧值，同时异步重新加载并覆盖缓存；
//   - 详情预取：对列表中尚未缓存详情的前 N 条记录在后台补齐详情缓存。
//
// 一致性约定：这是弱一致缓存。所有后端读写错误一律吞掉并按未命中
// 处理；后台刷新/预取的失败不向任何调用方传播。
// 并发约定：同一键的写操作串行化（每键互斥锁）；后台任务通过
// WaitGroup 跟踪，便于测试与优雅关闭等待收尾。
// ─────────────────────────────────────────────────────────────

// Loader 后台刷新时的数据加载回调
type Loader func(ctx context.Context) (interface{}, error)

// entry 缓存条目的存储格式（与前端 localStorage 布局兼容）
type entry struct {
	Data    json.RawMessage `json:"data"`
	Expires int64           `json:"expires"` // Unix 毫秒
}

// Service 读穿缓存服务对象
// 进程内仅构造一次，由 main 注入各消费方；不允许包级单例
type Service struct {
	store  Store
	cfg    config.CacheConfig
	logger *zap.Logger
	now    func() time.Time

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
	inflight map[string]bool // 每键去重的后台刷新标记
	bg       sync.WaitGroup
}

// NewService 创建缓存服务
func NewService(store Store, cfg *config.CacheConfig, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		cfg:      *cfg,
		logger:   logger,
		now:      time.Now,
		keyLocks: make(map[string]*sync.Mutex),
		inflight: make(map[string]bool),
	}
}

// SetClock 注入时钟（测试用）
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Wait 等待所有后台刷新与预取任务结束（测试与优雅关闭用）
func (s *Service) Wait() { s.bg.Wait() }

// ── 键构造 ──

// Key 列表类条目键："<prefix>_<userID>_<logicalKey>"
func (s *Service) Key(userID, logicalKey string) string {
	if userID == "" {
		userID = "anon"
	}
	return s.cfg.KeyPrefix + "_" + userID + "_" + logicalKey
}

// DetailKey 详情条目键："<prefix>_<userID>_schedule_<entityID>"
func (s *Service) DetailKey(userID, entityID string) string {
	return s.Key(userID, "schedule_"+entityID)
}

// ── 基本读写 ──

// Get 读取条目；未命中或已过期返回 nil，过期条目顺带从后端清除
func (s *Service) Get(ctx context.Context, userID, logicalKey string) json.RawMessage {
	data, _ := s.getWithExpiry(ctx, s.Key(userID, logicalKey))
	return data
}

// GetWithRefresh 读取条目并在临近过期时触发后台刷新
// 旧值对本次调用立即返回；刷新成功后覆盖缓存，失败被吞掉
func (s *Service) GetWithRefresh(ctx context.Context, userID, logicalKey string, ttl time.Duration, load Loader) json.RawMessage {
	key := s.Key(userID, logicalKey)
	data, expires := s.getWithExpiry(ctx, key)
	if data == nil {
		return nil
	}

	remaining := time.UnixMilli(expires).Sub(s.now())
	if remaining < s.cfg.NearExpiry {
		s.refreshInBackground(key, userID, logicalKey, ttl, load)
	}
	return data
}

// Set 写入条目，逻辑过期时间 = now + ttl
func (s *Service) Set(ctx context.Context, userID, logicalKey string, data interface{}, ttl time.Duration) {
	s.set(ctx, s.Key(userID, logicalKey), data, ttl)
}

// Delete 删除条目
func (s *Service) Delete(ctx context.Context, userID, logicalKey string) {
	key := s.Key(userID, logicalKey)
	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("缓存删除失败", zap.String("key", key), zap.Error(err))
	}
}

// ── 详情条目（单条记录，TTL 比列表更长）──

// GetDetail 读取详情条目
func (s *Service) GetDetail(ctx context.Context, userID, entityID string) json.RawMessage {
	data, _ := s.getWithExpiry(ctx, s.DetailKey(userID, entityID))
	return data
}

// SetDetail 写入详情条目（默认使用 detail_ttl）
func (s *Service) SetDetail(ctx context.Context, userID, entityID string, data interface{}) {
	s.set(ctx, s.DetailKey(userID, entityID), data, s.cfg.DetailTTL)
}

// DeleteDetail 删除详情条目
func (s *Service) DeleteDetail(ctx context.Context, userID, entityID string) {
	s.Delete(ctx, userID, "schedule_"+entityID)
}

// PrefetchDetails 对列表中尚未缓存详情的前 N 条记录调度后台预取
// 尽力而为：不阻塞调用方，单条失败跳过
func (s *Service) PrefetchDetails(userID string, entityIDs []string, load func(ctx context.Context, entityID string) (interface{}, error)) {
	limit := s.cfg.PrefetchCount
	if limit <= 0 {
		return
	}

	var missing []string
	for _, id := range entityIDs {
		if len(missing) >= limit {
			break
		}
		if s.GetDetail(context.Background(), userID, id) == nil {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer s.swallowPanic("详情预取")

		// 预取与调用方视图的生命周期解耦，使用独立上下文
		ctx := context.Background()
		for _, id := range missing {
			v, err := load(ctx, id)
			if err != nil {
				continue
			}
			s.SetDetail(ctx, userID, id, v)
		}
	}()
}

// ── 内部实现 ──

func (s *Service) getWithExpiry(ctx context.Context, key string) (json.RawMessage, int64) {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		// 后端不可用视为未命中
		s.logger.Warn("缓存读取失败", zap.String("key", key), zap.Error(err))
		return nil, 0
	}
	if raw == "" {
		return nil, 0
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		// 损坏条目直接清除
		_ = s.store.Delete(ctx, key)
		return nil, 0
	}
	if e.Expires <= s.now().UnixMilli() {
		lock := s.lockFor(key)
		lock.Lock()
		_ = s.store.Delete(ctx, key)
		lock.Unlock()
		return nil, 0
	}
	return e.Data, e.Expires
}

func (s *Service) set(ctx context.Context, key string, data interface{}, ttl time.Duration) {
	b, err := json.Marshal(data)
	if err != nil {
		s.logger.Warn("缓存序列化失败", zap.String("key", key), zap.Error(err))
		return
	}
	payload, err := json.Marshal(entry{Data: b, Expires: s.now().Add(ttl).UnixMilli()})
	if err != nil {
		return
	}

	lock := s.lockFor(key)
	lock.Lock()
	defer lock.Unlock()
	if err := s.store.Set(ctx, key, string(payload), ttl); err != nil {
		s.logger.Warn("缓存写入失败", zap.String("key", key), zap.Error(err))
	}
}

// refreshInBackground 调度一次去重的后台刷新
func (s *Service) refreshInBackground(key, userID, logicalKey string, ttl time.Duration, load Loader) {
	if load == nil {
		return
	}

	s.mu.Lock()
	if s.inflight[key] {
		s.mu.Unlock()
		return
	}
	s.inflight[key] = true
	s.mu.Unlock()

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer s.swallowPanic("后台刷新")
		defer func() {
			s.mu.Lock()
			delete(s.inflight, key)
			s.mu.Unlock()
		}()

		// 刷新与请求生命周期解耦：请求返回或取消后刷新照常完成
		ctx := context.Background()
		v, err := load(ctx)
		if err != nil {
			s.logger.Debug("后台刷新失败", zap.String("key", key), zap.Error(err))
			return
		}
		s.Set(ctx, userID, logicalKey, v, ttl)
	}()
}

// lockFor 返回指定键的互斥锁（锁集合规模受用户数 × 逻辑键数约束）
func (s *Service) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.keyLocks[key]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.keyLocks[key] = l
	return l
}

func (s *Service) swallowPanic(task string) {
	if r := recover(); r != nil {
		s.logger.Error("后台缓存任务 panic", zap.String("task", task), zap.Any("panic", r))
	}
}
