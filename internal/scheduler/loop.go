package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EugeneVC/web-monitor/internal/domain"
	"github.com/EugeneVC/web-monitor/internal/probe"
	"github.com/EugeneVC/web-monitor/internal/repo"
)

// Observer is notified of every produced record and every failed delivery.
type Observer interface {
	ObserveCheck(r domain.LogRecord)
	ObserveSinkError()
}

// Loop drives one task through check -> record -> sleep until ctx is done.
// A check never overlaps the previous one; the sleep starts only after the
// record has been delivered, so the effective period is period + check time.
type Loop struct {
	Logger   *zap.Logger
	Task     probe.Task
	Sink     repo.Sink
	Observer Observer // optional

	newID func() string
}

func NewLoop(logger *zap.Logger, task probe.Task, sink repo.Sink, obs Observer) *Loop {
	return &Loop{
		Logger:   logger,
		Task:     task,
		Sink:     sink,
		Observer: obs,
		newID:    uuid.NewString,
	}
}

// Run blocks until ctx is cancelled. Check failures never end the loop.
func (l *Loop) Run(ctx context.Context) {
	site := l.Task.Site()
	l.Logger.Info("loop_started",
		zap.String("name", site.Name),
		zap.String("uri", site.URI),
		zap.Duration("period", site.CheckPeriod),
		zap.Duration("timeout", site.Timeout),
	)
	for {
		l.runOnce(ctx)
		if !sleep(ctx, site.CheckPeriod) {
			l.Logger.Info("loop_stopped", zap.String("name", site.Name))
			return
		}
	}
}

// runOnce performs one check and delivers its record. It reports false when
// the check was interrupted by shutdown, in which case nothing is delivered.
func (l *Loop) runOnce(ctx context.Context) (domain.LogRecord, bool) {
	site := l.Task.Site()

	start := time.Now()
	res := l.Task.Check(ctx)
	if ctx.Err() != nil {
		l.Logger.Debug("check_interrupted", zap.String("name", site.Name))
		return domain.LogRecord{}, false
	}

	rec := domain.LogRecord{
		ID:            l.newID(),
		Name:          site.Name,
		StartTime:     start,
		Outcome:       res.Outcome,
		ExecutionTime: res.Duration,
	}
	l.logResult(site, res)

	if l.Observer != nil {
		l.Observer.ObserveCheck(rec)
	}
	if err := l.Sink.Add(ctx, rec); err != nil {
		l.Logger.Warn("sink_delivery_error",
			zap.String("name", site.Name),
			zap.String("record_id", rec.ID),
			zap.Error(err),
		)
		if l.Observer != nil {
			l.Observer.ObserveSinkError()
		}
	}
	return rec, true
}

func (l *Loop) logResult(site domain.Site, res probe.Result) {
	fields := []zap.Field{
		zap.String("name", site.Name),
		zap.String("uri", site.URI),
		zap.Stringer("outcome", res.Outcome),
		zap.Int("status", res.StatusCode),
		zap.Duration("execution_time", res.Duration),
	}
	switch {
	case res.Err != nil:
		l.Logger.Warn("check_failed", append(fields, zap.String("cause", res.Cause), zap.Error(res.Err))...)
	case res.Outcome == domain.OutcomeContentMismatch:
		l.Logger.Info("check_content_mismatch", append(fields, zap.String("pattern", site.SearchContent))...)
	default:
		l.Logger.Debug("check_done", fields...)
	}
}

// sleep reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
