package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Connect opens the shared client used for sessions and judge results.
// The dispatch queue keeps its own connection, see Client.
func Connect(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
