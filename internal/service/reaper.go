package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/templui/secureshare/internal/repository"
	"github.com/templui/secureshare/internal/storage"
)

// Reaper periodically removes expired objects and tokens. Lookups already
// ignore expired rows, so the reaper only reclaims space.
type Reaper struct {
	objects  repository.ObjectRepository
	tokens   repository.TokenRepository
	blobs    storage.Storage
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
}

type SweepResult struct {
	Objects int64
	Tokens  int64
	Blobs   int
}

func NewReaper(objects repository.ObjectRepository, tokens repository.TokenRepository, blobs storage.Storage, interval, timeout time.Duration) *Reaper {
	if interval < time.Second {
		interval = time.Second
	}
	if timeout <= 0 {
		timeout = interval
	}
	return &Reaper{
		objects:  objects,
		tokens:   tokens,
		blobs:    blobs,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Sweep runs one cleanup pass against both stores. A failure in one store
// does not stop the other; errors are joined.
func (r *Reaper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := utcNow(r.now)

	objects, blobKeys, objErr := r.objects.DeleteExpired(ctx, now)
	if objErr == nil {
		res.Objects = objects
		res.Blobs = r.deleteBlobs(ctx, blobKeys)
	}

	tokens, tokErr := r.tokens.DeleteExpired(ctx, now)
	if tokErr == nil {
		res.Tokens = tokens
	}

	return res, errors.Join(objErr, tokErr)
}

func (r *Reaper) deleteBlobs(ctx context.Context, keys []string) int {
	if r.blobs == nil {
		return 0
	}
	deleted := 0
	for _, key := range keys {
		err := r.blobs.Delete(ctx, key)
		if err != nil {
			slog.Error("reaper failed to delete blob", "error", err, "blob_key", key)
			continue
		}
		deleted++
	}
	return deleted
}

// sweep is the scheduled job: bounded by the sweep timeout, never fails.
func (r *Reaper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	res, err := r.Sweep(ctx)
	if err != nil {
		slog.Error("reaper sweep failed", "error", err)
	}
	if res.Objects > 0 || res.Tokens > 0 {
		slog.Info("reaper sweep",
			"objects", res.Objects,
			"tokens", res.Tokens,
			"blobs", res.Blobs,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
// It returns after the scheduler has stopped and any running sweep finished.
func (r *Reaper) Run(ctx context.Context) {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	c.Schedule(cron.Every(r.interval), cron.FuncJob(func() { r.sweep(ctx) }))

	slog.Info("reaper started", "interval", r.interval)
	r.sweep(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("reaper stopped")
}

// cronLogger routes robfig/cron logs through slog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	slog.Debug(fmt.Sprintf("cron: %s", msg), keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	slog.Error(fmt.Sprintf("cron: %s", msg), append(keysAndValues, "error", err)...)
}
