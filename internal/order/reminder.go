package order

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"telemart/internal/logger"
)

// SchedulePendingReminder periodically nudges admins about orders that are
// still pending and unclaimed. Purely advisory; failures are logged only.
func SchedulePendingReminder(c *cron.Cron, spec string, svc *Service, notifier AdminNotifier) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		orders, err := svc.PendingUnassigned(ctx)
		if err != nil {
			logger.Log.Error("pending reminder: list orders", zap.Error(err))
			return
		}
		if len(orders) == 0 {
			return
		}
		logger.Log.Info("pending reminder", zap.Int("count", len(orders)))
		notifier.PendingReminder(orders)
	})
	return err
}
