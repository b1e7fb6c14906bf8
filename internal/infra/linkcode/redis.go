package linkcode

import (
	"context"
	"errors"
	"time"

	"gearbook/internal/pkg/errs"
	"gearbook/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "tg_link:"

var ErrCodeNotFound = errs.New("link code not found")

// RedisStore keeps Telegram link codes in redis so they expire on their own
// and survive process restarts.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) commands.LinkCodeStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, code string, userID uuid.UUID, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+code, userID.String(), ttl).Err(); err != nil {
		return errs.Wrap(err, "failed to store link code")
	}
	return nil
}

// Pop consumes the code atomically; a second redemption of the same code
// fails.
func (s *RedisStore) Pop(ctx context.Context, code string) (uuid.UUID, error) {
	val, err := s.client.GetDel(ctx, keyPrefix+code).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrCodeNotFound
		}
		return uuid.Nil, errs.Wrap(err, "failed to redeem link code")
	}

	userID, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, errs.Wrap(err, "malformed link code payload")
	}
	return userID, nil
}
