package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var ErrLockNotAcquired = errors.New("schedule lock not acquired")

// ScheduleLocker serializes calendar writes for one doctor across API replicas.
type ScheduleLocker interface {
	WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisScheduleLocker struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Logger
}

// NewRedisScheduleLocker creates a locker that uses one Redis key per doctor.
func NewRedisScheduleLocker(client *redis.Client, ttl time.Duration, log *logrus.Logger) ScheduleLocker {
	return &redisScheduleLocker{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

func (l *redisScheduleLocker) WithDoctorLock(ctx context.Context, doctorID uuid.UUID, fn func(ctx context.Context) error) error {
	key := ScheduleLockKey(doctorID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire schedule lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	// The critical section may outlive a cancelled request context, the
	// release must not.
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := l.release(releaseCtx, key, token); err != nil {
			l.log.Warnf("Failed to release schedule lock for doctor %s, held until TTL: %+v", doctorID, err)
		}
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

func ScheduleLockKey(doctorID uuid.UUID) string {
	return fmt.Sprintf("lock:schedule:doctor:%s", doctorID.String())
}

// unlockScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another replica is never released by us.
var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisScheduleLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release schedule lock: %w", err)
	}
	return nil
}
