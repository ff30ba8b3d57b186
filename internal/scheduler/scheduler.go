package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/crucial707/market-supervisor/internal/executor"
	"github.com/crucial707/market-supervisor/internal/models"
)

// Cadence expressions, all firing at 09:00 server time: daily, Mondays,
// Mondays and Thursdays, first of the month.
var cadences = []struct {
	frequency string
	expr      string
}{
	{models.FrequencyDaily, "0 9 * * *"},
	{models.FrequencyWeekly, "0 9 * * 1"},
	{models.FrequencyBiweekly, "0 9 * * 1,4"},
	{models.FrequencyMonthly, "0 9 1 * *"},
}

// Start launches the four fixed-cadence triggers and returns the running cron
// instance so the caller can Stop it on shutdown. A tick may fire while an
// earlier batch is still in flight; RunDue tolerates that.
func Start(exec *executor.Executor, logger *slog.Logger) *cron.Cron {
	if logger == nil {
		logger = slog.Default()
	}
	c := cron.New()

	for _, cad := range cadences {
		frequency := cad.frequency
		_, err := c.AddFunc(cad.expr, func() {
			logger.Info("timer fired", "frequency", frequency)
			if err := exec.RunDue(context.Background(), frequency); err != nil {
				logger.Error("scheduled batch failed", "frequency", frequency, "error", err)
			}
		})
		if err != nil {
			// The expressions are constants; this only trips on a bad edit.
			logger.Error("scheduler: invalid cron expression", "expr", cad.expr, "error", err)
		}
	}

	c.Start()
	logger.Info("scheduler started", "cadences", len(cadences))
	return c
}
