package queue

import (
	"context"

	"github.com/redis/rueidis"
)

// RedisSlotManager keeps the slot pool in a Redis list so the bound holds
// across independent worker processes, not just goroutines of one process.
type RedisSlotManager struct {
	client rueidis.Client
	key    string
}

func NewRedisSlotManager(client rueidis.Client, slotKey string) *RedisSlotManager {
	return &RedisSlotManager{
		client: client,
		key:    slotKey,
	}
}

func (r *RedisSlotManager) AcquireSlot(ctx context.Context) error {
	cmd := r.client.B().Lpop().Key(r.key).Build()
	result := r.client.Do(ctx, cmd)

	if err := result.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return ErrNoSlotAvailable
		}
		return err
	}

	return nil
}

func (r *RedisSlotManager) ReleaseSlot(ctx context.Context) error {
	cmd := r.client.B().Rpush().Key(r.key).Element("1").Build()
	return r.client.Do(ctx, cmd).Error()
}

func (r *RedisSlotManager) InitializeSlots(ctx context.Context, count int) error {
	delCmd := r.client.B().Del().Key(r.key).Build()
	if err := r.client.Do(ctx, delCmd).Error(); err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		if err := r.ReleaseSlot(ctx); err != nil {
			return err
		}
	}

	return nil
}
