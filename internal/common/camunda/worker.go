// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"time"

	"paperless-workers/internal/common/errors"
	"paperless-workers/internal/common/jobstatus"
	"paperless-workers/internal/common/logger"
	"paperless-workers/internal/common/metrics"
	"paperless-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler completes or fails the job itself and returns the cause of a
// failure so the wrapper can record it.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

type JobHandlerFunc func(client worker.JobClient, job entities.Job) error

func (f JobHandlerFunc) Handle(client worker.JobClient, job entities.Job) error {
	return f(client, job)
}

type StatusRecorder interface {
	Set(ctx context.Context, rec jobstatus.Record) error
}

type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
	Status        StatusRecorder
	Observability *observability.Observability
}

type Worker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

func NewWorker(client zbc.Client, taskType string, handler JobHandler, opts WorkerOptions, log logger.Logger) *Worker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	step := client.NewJobWorker().
		JobType(taskType).
		Handler(Wrap(taskType, handler, opts, log))
	if opts.MaxJobsActive > 0 {
		step = step.MaxJobsActive(opts.MaxJobsActive)
	}
	if opts.Timeout > 0 {
		step = step.Timeout(opts.Timeout)
	}

	w := &Worker{
		worker:   step.Open(),
		logger:   log,
		taskType: taskType,
	}
	log.Info("worker started", map[string]interface{}{
		"maxJobsActive": opts.MaxJobsActive,
		"timeoutMs":     opts.Timeout.Milliseconds(),
	})
	return w
}

func (w *Worker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}

// Wrap adapts a JobHandler to the Zeebe handler signature and records
// metrics and job status around each invocation.
func Wrap(taskType string, handler JobHandler, opts WorkerOptions, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		ctx := context.Background()

		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		setStatus(ctx, opts.Status, log, jobstatus.Record{JobKey: job.Key, TaskType: taskType, Status: jobstatus.StatusStarted})

		err := handler.Handle(client, job)
		duration := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(duration.Seconds())

		if err != nil {
			code := string(errors.Normalize(err).Code)
			metrics.WorkerJobsFailed.WithLabelValues(taskType, code).Inc()
			opts.Observability.RecordJob(ctx, taskType, string(jobstatus.StatusFailed), duration)
			setStatus(ctx, opts.Status, log, jobstatus.Record{
				JobKey: job.Key, TaskType: taskType, Status: jobstatus.StatusFailed, Error: code,
			})
			return
		}

		metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		opts.Observability.RecordJob(ctx, taskType, string(jobstatus.StatusCompleted), duration)
		setStatus(ctx, opts.Status, log, jobstatus.Record{JobKey: job.Key, TaskType: taskType, Status: jobstatus.StatusCompleted})
	}
}

func setStatus(ctx context.Context, store StatusRecorder, log logger.Logger, rec jobstatus.Record) {
	if store == nil {
		return
	}
	if err := store.Set(ctx, rec); err != nil {
		log.Warn("failed to record job status", map[string]interface{}{
			"jobKey": rec.JobKey,
			"status": string(rec.Status),
			"error":  err,
		})
	}
}

// CompleteJob sends the complete command with output as job variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("marshal job output: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return errors.NewExternalServiceError("zeebe", err)
	}
	return nil
}
