package telegram

import (
	"context"
	"fmt"
	"hash/fnv"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Updater interface {
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
}

const (
	longPollSeconds = 30
	idleWait        = 200 * time.Millisecond
	minBackoff      = time.Second
	maxBackoff      = 15 * time.Second

	// DefaultWorkers bounds how many claims are verified at once.
	DefaultWorkers = 8
)

var retryAfterRe = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

// RetryDelayFromError reads the wait Telegram asks for on 429 and falls back
// to a fixed pause per error kind.
func RetryDelayFromError(err error) time.Duration {
	var ne net.Error
	switch {
	case err == nil:
		return 0
	case strings.Contains(strings.ToLower(err.Error()), "too many requests"):
		if m := retryAfterRe.FindStringSubmatch(err.Error()); m != nil {
			if n, convErr := strconv.Atoi(m[1]); convErr == nil && n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	case errors.As(err, &ne) && ne.Timeout():
		return 2 * time.Second
	default:
		return time.Second
	}
}

// Poller drains getUpdates and hands each update to Handle on its own
// goroutine, at most Workers at a time.
type Poller struct {
	Bot     Updater
	Handle  func(context.Context, tgbotapi.Update)
	Workers int
	Log     *zap.Logger

	offset int
}

// Run blocks until ctx is done and in-flight handlers have returned.
// getUpdates failures are logged and retried.
func (p *Poller) Run(ctx context.Context) {
	var g errgroup.Group
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	g.SetLimit(workers)
	defer func() {
		_ = g.Wait()
		p.Log.Info("polling stopped")
	}()

	for ctx.Err() == nil {
		cfg := tgbotapi.NewUpdate(p.offset)
		cfg.Timeout = longPollSeconds

		batch, err := p.Bot.GetUpdates(cfg)
		if err != nil {
			d := clamp(RetryDelayFromError(err), minBackoff, maxBackoff)
			p.Log.Warn("getUpdates failed", zap.Error(err), zap.Duration("retry_in", d))
			wait(ctx, d)
			continue
		}
		if len(batch) == 0 {
			wait(ctx, idleWait)
			continue
		}

		for _, upd := range batch {
			p.offset = max(p.offset, upd.UpdateID+1)
			g.Go(func() error {
				p.Handle(ctx, upd)
				return nil
			})
		}
	}
}

func clamp(d, lo, hi time.Duration) time.Duration {
	return min(max(d, lo), hi)
}

func wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// ShortHash names the secret webhook path after the bot token.
func ShortHash(s string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return fmt.Sprintf("%016x", h.Sum64())
}
