package notify

import (
	"context"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects to the pub/sub broker at url. A failed startup
// ping is logged and the client is still returned; go-redis redials lazily.
func NewRedisClient(ctx context.Context, url string, logger *zap.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	opts.MaxRetries = 3
	opts.MinRetryBackoff = 100 * time.Millisecond
	opts.MaxRetryBackoff = 500 * time.Millisecond

	client := redis.NewClient(opts)
	sugar := logger.Sugar()
	client.AddHook(&loggerHook{logger: sugar})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		sugar.Errorw("Redis connection failed at startup", "addr", opts.Addr, "error", err)
	} else {
		sugar.Infow("Redis connected", "addr", opts.Addr, "db", opts.DB)
	}
	return client, nil
}

type loggerHook struct {
	logger *zap.SugaredLogger
}

func (h *loggerHook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)
		if err != nil {
			h.logger.Errorw("Redis dial failed", "network", network, "addr", addr, "error", err)
		}
		return conn, err
	}
}

func (h *loggerHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		start := time.Now()
		err := next(ctx, cmd)
		if cmd.Name() == "ping" && err == nil {
			return nil
		}
		if err != nil {
			h.logger.Errorw("Redis command failed", "command", cmd.Name(), "duration", time.Since(start).String(), "error", err)
		} else {
			h.logger.Debugw("Redis command executed", "command", cmd.Name(), "duration", time.Since(start).String())
		}
		return err
	}
}

func (h *loggerHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}
