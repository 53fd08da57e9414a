package monitor

import (
	"context"
	"fmt"

	"stockwatch/internal/metrics"
	"stockwatch/internal/models"
)

// AddTarget registers a URL. The loop picks it up on its next sweep.
func (e *Engine) AddTarget(ctx context.Context, url, title, memo string) error {
	if err := e.registry.Add(ctx, url, title, memo); err != nil {
		return err
	}
	metrics.SetTargets(e.registry.Len())
	e.log.Info().Str("url", url).Msg("target added")
	return nil
}

// RemoveTarget deletes the target at index and drops its recorded status.
func (e *Engine) RemoveTarget(ctx context.Context, index int) (models.Target, error) {
	e.targetsMu.Lock()
	t, err := e.registry.Remove(ctx, index)
	if err == nil {
		e.states.Forget(t.URL)
	}
	e.targetsMu.Unlock()
	if err != nil {
		return models.Target{}, err
	}
	metrics.SetTargets(e.registry.Len())
	e.log.Info().Str("url", t.URL).Msg("target removed")
	return t, nil
}

// Targets lists the registry in order together with the last observed status.
func (e *Engine) Targets() []models.TargetStatus {
	list := e.registry.List()
	out := make([]models.TargetStatus, 0, len(list))
	for _, t := range list {
		out = append(out, models.TargetStatus{Target: t, Status: e.states.Status(t.URL)})
	}
	return out
}

func (e *Engine) Status() Status {
	return Status{
		Monitoring: e.Running(),
		CheckCount: e.CheckCount(),
		URLCount:   e.registry.Len(),
	}
}

// Logs returns the n most recent activity entries, oldest first.
func (e *Engine) Logs(n int) []models.LogEntry {
	return e.activity.Recent(n)
}

// TestNotification sends a fixed message through the configured notifier.
func (e *Engine) TestNotification(ctx context.Context) bool {
	msg := fmt.Sprintf("🤖 <b>Test notification</b>\n\nstockwatch is connected.\n🕐 %s", e.now().Format("15:04:05"))
	ok := e.notifier.Send(ctx, msg)
	metrics.ObserveNotification(ok)
	if ok {
		e.activity.Append("📨 test notification sent")
	} else {
		e.activity.Append("test notification failed")
	}
	return ok
}
