package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}

// LessonCheckinKey is the counter key the worker increments per check-in.
func LessonCheckinKey(lessonID string) string {
	return "rollcall:lesson:" + lessonID + ":checkins"
}

// IncrLessonCheckins bumps the live check-in counter for a lesson.
func (r *Redis) IncrLessonCheckins(ctx context.Context, lessonID string) (int64, error) {
	return r.Client.Incr(ctx, LessonCheckinKey(lessonID)).Result()
}

// LessonCheckins reads the live check-in counter for a lesson; missing keys
// read as zero.
func (r *Redis) LessonCheckins(ctx context.Context, lessonID string) (int64, error) {
	n, err := r.Client.Get(ctx, LessonCheckinKey(lessonID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
