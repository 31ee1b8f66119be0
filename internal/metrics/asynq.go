package metrics

import (
	"context"
	"errors"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 任务结果标签。
const (
	TaskSucceeded = "succeeded"
	TaskRetrying  = "retrying"
	TaskDropped   = "dropped"
)

var (
	tasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kidsfolio",
			Subsystem: "worker",
			Name:      "tasks_total",
			Help:      "后台任务处理次数，按任务类型与结果区分。",
		},
		[]string{"task_type", "outcome"},
	)

	tasksInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "kidsfolio",
			Subsystem: "worker",
			Name:      "tasks_in_progress",
			Help:      "正在处理的后台任务数。",
		},
		[]string{"task_type"},
	)
)

// AsynqMetricsMiddleware 统计任务结果。带 SkipRetry 的失败记为 dropped，其余失败记为 retrying。
func AsynqMetricsMiddleware() asynq.MiddlewareFunc {
	return func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, task *asynq.Task) error {
			inProgress := tasksInProgress.WithLabelValues(task.Type())
			inProgress.Inc()
			defer inProgress.Dec()

			err := next.ProcessTask(ctx, task)
			tasksTotal.WithLabelValues(task.Type(), taskOutcome(err)).Inc()
			return err
		})
	}
}

func taskOutcome(err error) string {
	switch {
	case err == nil:
		return TaskSucceeded
	case errors.Is(err, asynq.SkipRetry):
		return TaskDropped
	default:
		return TaskRetrying
	}
}

