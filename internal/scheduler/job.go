package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work.
type Job interface {
	// Name returns the job name
	Name() string

	// Run executes the job
	Run(ctx context.Context) error

	// Schedule returns the cron schedule expression
	// Examples: "0 0 16 * * *" (every day at 4 PM)
	//           "@daily", "@hourly"
	Schedule() string
}

// JobResult records one job execution.
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobHistory stores recent executions of one job.
type JobHistory struct {
	Results []JobResult
}

const historyLimit = 100

// AddResult appends a result, keeping only the most recent entries.
func (h *JobHistory) AddResult(result JobResult) {
	h.Results = append(h.Results, result)
	if len(h.Results) > historyLimit {
		h.Results = h.Results[len(h.Results)-historyLimit:]
	}
}

// Latest returns the most recent result, if any.
func (h *JobHistory) Latest() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// SuccessRate returns the fraction of successful runs (0.0 - 1.0).
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0.0
	}

	success := 0
	for _, result := range h.Results {
		if result.Success {
			success++
		}
	}
	return float64(success) / float64(len(h.Results))
}
