package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	refreshRevokedPrefix = "auth:refresh:revoked:"
	loginFailPrefix      = "auth:login:fail:"
	loginLockPrefix      = "auth:login:lock:"
)

// hourlyCounter 由 redis.UniversalClient 实现。
type hourlyCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// overHourlyLimit 按自然小时计数，第一次写入时设置过期。
// counter 为 nil 或 limit <= 0 时不限流。
func overHourlyLimit(ctx context.Context, counter hourlyCounter, scope, subject string, limit int, now time.Time) (bool, error) {
	if counter == nil || limit <= 0 {
		return false, nil
	}
	key := "rate:" + scope + ":" + subject + ":" + now.UTC().Format("2006010215")
	count, err := counter.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		_ = counter.Expire(ctx, key, time.Hour).Err()
	}
	return count > int64(limit), nil
}

// SessionGuard 是登录限流、失败锁定与刷新令牌吊销。
type SessionGuard interface {
	AllowLogin(ctx context.Context, ip, username string) (bool, error)
	Locked(ctx context.Context, username string) bool
	RecordFailure(ctx context.Context, username string)
	Reset(ctx context.Context, username string)
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	Revoked(ctx context.Context, jti string) (bool, error)
}

// RedisSessionGuard 把登录状态放在 Redis，API 多实例共享。
type RedisSessionGuard struct {
	client        redis.UniversalClient
	limitPerHour  int
	lockThreshold int
	lockTTL       time.Duration
}

func NewRedisSessionGuard(client redis.UniversalClient, limitPerHour, lockThreshold int, lockTTL time.Duration) *RedisSessionGuard {
	return &RedisSessionGuard{
		client:        client,
		limitPerHour:  limitPerHour,
		lockThreshold: lockThreshold,
		lockTTL:       lockTTL,
	}
}

func (g *RedisSessionGuard) AllowLogin(ctx context.Context, ip, username string) (bool, error) {
	over, err := overHourlyLimit(ctx, g.client, "login", ip+":"+normalizeUsername(username), g.limitPerHour, time.Now())
	return !over, err
}

func (g *RedisSessionGuard) Locked(ctx context.Context, username string) bool {
	ttl, err := g.client.TTL(ctx, loginLockPrefix+normalizeUsername(username)).Result()
	return err == nil && ttl > 0
}

// RecordFailure 连续失败达到阈值后锁定账号 lockTTL。
func (g *RedisSessionGuard) RecordFailure(ctx context.Context, username string) {
	name := normalizeUsername(username)
	count, err := g.client.Incr(ctx, loginFailPrefix+name).Result()
	if err != nil {
		return
	}
	if count == 1 {
		_ = g.client.Expire(ctx, loginFailPrefix+name, g.lockTTL).Err()
	}
	if g.lockThreshold > 0 && count >= int64(g.lockThreshold) {
		_ = g.client.Set(ctx, loginLockPrefix+name, "1", g.lockTTL).Err()
	}
}

func (g *RedisSessionGuard) Reset(ctx context.Context, username string) {
	_ = g.client.Del(ctx, loginFailPrefix+normalizeUsername(username)).Err()
}

func (g *RedisSessionGuard) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	return g.client.Set(ctx, refreshRevokedPrefix+jti, "1", ttl).Err()
}

func (g *RedisSessionGuard) Revoked(ctx context.Context, jti string) (bool, error) {
	err := g.client.Get(ctx, refreshRevokedPrefix+jti).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
