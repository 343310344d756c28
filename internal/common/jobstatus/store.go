// internal/common/jobstatus/store.go

// Package jobstatus keeps the latest state of each Zeebe job in Redis so
// operators can look a job up by key.
package jobstatus

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

type Status string

const (
	StatusStarted   Status = "started"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

const DefaultTTL = 24 * time.Hour

var ErrUnknownJob = errors.New("JOB_STATUS_NOT_FOUND")

type Record struct {
	JobKey    int64     `json:"jobKey"`
	TaskType  string    `json:"taskType"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	client *redis.Client
	ttl    time.Duration
}

func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl}
}

func key(jobKey int64) string {
	return "job:" + strconv.FormatInt(jobKey, 10)
}

// Set overwrites the record for rec.JobKey and refreshes its TTL.
func (s *Store) Set(ctx context.Context, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	k := key(rec.JobKey)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, map[string]interface{}{
			"status":    string(rec.Status),
			"taskType":  rec.TaskType,
			"error":     rec.Error,
			"updatedAt": rec.UpdatedAt.Format(time.RFC3339Nano),
		})
		pipe.Expire(ctx, k, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set job status %d: %w", rec.JobKey, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, jobKey int64) (*Record, error) {
	fields, err := s.client.HGetAll(ctx, key(jobKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("get job status %d: %w", jobKey, err)
	}
	if len(fields) == 0 {
		return nil, ErrUnknownJob
	}

	rec := &Record{
		JobKey:   jobKey,
		TaskType: fields["taskType"],
		Status:   Status(fields["status"]),
		Error:    fields["error"],
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["updatedAt"]); err == nil {
		rec.UpdatedAt = ts
	}
	return rec, nil
}
