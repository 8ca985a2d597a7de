package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"online_judge/internal/common"
	"online_judge/internal/domain/model"
)

// Recorder stores a verdict reported by a judge.
type Recorder interface {
	RecordResult(ctx context.Context, res model.JudgeResult) error
}

// ResultConsumer pops judge verdicts from a redis list and records them.
type ResultConsumer struct {
	rdb        *redis.Client
	queue      string
	recorder   Recorder
	log        zerolog.Logger
	popTimeout time.Duration
	retryDelay time.Duration
	wg         sync.WaitGroup
}

func NewResultConsumer(rdb *redis.Client, queue string, recorder Recorder, log zerolog.Logger) *ResultConsumer {
	return &ResultConsumer{
		rdb:        rdb,
		queue:      queue,
		recorder:   recorder,
		log:        log.With().Str("component", "result_consumer").Str("queue", queue).Logger(),
		popTimeout: 5 * time.Second,
		retryDelay: time.Second,
	}
}

// Start runs the loop in a goroutine; Wait returns once ctx is cancelled and the loop exits.
func (c *ResultConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(ctx)
	}()
}

func (c *ResultConsumer) Wait() {
	c.wg.Wait()
}

func (c *ResultConsumer) run(ctx context.Context) {
	c.log.Info().Msg("result consumer started")
	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("result consumer stopping")
			return
		default:
		}

		res, err := c.rdb.BLPop(ctx, c.popTimeout, c.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			c.log.Error().Err(err).Msg("BLPOP failed")
			c.sleep(ctx)
			continue
		}
		// res is [queue, value]
		if len(res) < 2 {
			continue
		}
		c.handle(ctx, res[1])
	}
}

func (c *ResultConsumer) handle(ctx context.Context, raw string) {
	var result model.JudgeResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		c.log.Warn().Err(err).Str("payload", raw).Msg("dropping undecodable judge result")
		return
	}

	err := c.recorder.RecordResult(ctx, result)
	switch {
	case err == nil:
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrValidation):
		c.log.Warn().Err(err).Int64("submission_id", result.SubmissionID).Msg("dropping rejected judge result")
	default:
		// Store trouble; put it back so the verdict is not lost.
		c.log.Error().Err(err).Int64("submission_id", result.SubmissionID).Msg("failed to record judge result, requeueing")
		if err := c.rdb.RPush(context.WithoutCancel(ctx), c.queue, raw).Err(); err != nil {
			c.log.Error().Err(err).Int64("submission_id", result.SubmissionID).Msg("failed to requeue judge result")
		}
		c.sleep(ctx)
	}
}

func (c *ResultConsumer) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.retryDelay):
	}
}
