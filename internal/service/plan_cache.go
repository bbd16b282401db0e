package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"learning_companion_backend/internal/model"
	"learning_companion_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// PlanSnapshot 某用户的计划列表（新到旧）及其中的活动计划
type PlanSnapshot struct {
	Plans  []model.LearningPlan `json:"plans"`
	Active *model.LearningPlan  `json:"active_plan"`
}

func newPlanSnapshot(plans []model.LearningPlan) *PlanSnapshot {
	if plans == nil {
		plans = []model.LearningPlan{}
	}
	snap := &PlanSnapshot{Plans: plans}
	for i := range plans {
		if plans[i].IsActive {
			snap.Active = &plans[i]
			break
		}
	}
	return snap
}

// PlanCache 按用户保存计划快照，只由 LearningService.Refresh 写入
type PlanCache interface {
	Get(ctx context.Context, userID string) (*PlanSnapshot, bool)
	Set(ctx context.Context, userID string, snap *PlanSnapshot)
}

type MemoryPlanCache struct {
	mu    sync.RWMutex
	items map[string]*PlanSnapshot
}

func NewMemoryPlanCache() *MemoryPlanCache {
	return &MemoryPlanCache{items: make(map[string]*PlanSnapshot)}
}

func (c *MemoryPlanCache) Get(_ context.Context, userID string) (*PlanSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.items[userID]
	return snap, ok
}

func (c *MemoryPlanCache) Set(_ context.Context, userID string, snap *PlanSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[userID] = snap
}

// RedisPlanCache 多实例部署时共享快照
type RedisPlanCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisPlanCache(rdb *redis.Client, ttl time.Duration) *RedisPlanCache {
	return &RedisPlanCache{Redis: rdb, TTL: ttl}
}

func planCacheKey(userID string) string {
	return "plans:user:" + userID
}

func (c *RedisPlanCache) Get(ctx context.Context, userID string) (*PlanSnapshot, bool) {
	val, err := c.Redis.Get(ctx, planCacheKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		logger.Log.Warn("Plan cache read failed", zap.String("userID", userID), zap.Error(err))
		return nil, false
	}

	var snap PlanSnapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		logger.Log.Warn("Plan cache entry corrupted", zap.String("userID", userID), zap.Error(err))
		return nil, false
	}
	// Active 需要指回 Plans 中的元素
	return newPlanSnapshot(snap.Plans), true
}

func (c *RedisPlanCache) Set(ctx context.Context, userID string, snap *PlanSnapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		logger.Log.Error("Failed to encode plan snapshot", zap.Error(err))
		return
	}
	if err := c.Redis.Set(ctx, planCacheKey(userID), payload, c.TTL).Err(); err != nil {
		logger.Log.Warn("Plan cache write failed", zap.String("userID", userID), zap.Error(err))
	}
}
