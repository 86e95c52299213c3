package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Worker 定时批处理：逐用户刷新报警快照并执行音量渐升
type Worker struct {
	service *Service
	logger  *zap.Logger
}

// NewWorker 创建批处理器
func NewWorker(s *Service) *Worker {
	return &Worker{
		service: s,
		logger:  s.logger,
	}
}

// Run 按轮询间隔循环执行，直到上下文取消
func (w *Worker) Run(ctx context.Context) error {
	interval := w.service.cfg.Scheduler.PollInterval
	w.logger.Info("scheduler started",
		zap.Duration("poll_interval", interval),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx, time.Now())
		}
	}
}

// RunOnce 执行一轮批处理
// 用户按序处理；单个用户失败只记录日志，绝不中断整轮
func (w *Worker) RunOnce(ctx context.Context, now time.Time) {
	userIDs, err := w.service.userRegistry.AllUserIDs()
	if err != nil {
		w.logger.Error("failed to list registered users", zap.Error(err))
		return
	}

	w.logger.Info("scheduled run",
		zap.Time("now", now),
		zap.Int("user_count", len(userIDs)),
	)

	for _, userID := range userIDs {
		if err := w.processUser(ctx, userID, now); err != nil {
			w.logger.Error("scheduled processing failed for user",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}
}

// processUser 单用户流水线：刷新（如已过期）→ 调整音量
func (w *Worker) processUser(ctx context.Context, userID string, now time.Time) error {
	if err := w.service.RefreshAlarms(ctx, userID, false); err != nil {
		return err
	}
	return w.service.AdjustVolumes(ctx, userID, now)
}
