package scheduler

import (
	"context"
	"time"
)

// Job is a unit of background work run on a cron schedule
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error

	// Schedule returns a 6-field cron expression (seconds first)
	// or a descriptor such as "@every 1m"
	Schedule() string
}

// JobResult is one execution of a job, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// 작업별 최근 실행 기록 보관 개수
const maxHistory = 50

// JobHistory keeps the most recent results of a single job
type JobHistory struct {
	Results []JobResult
}

func (h *JobHistory) add(result JobResult) {
	h.Results = append(h.Results, result)
	if over := len(h.Results) - maxHistory; over > 0 {
		h.Results = h.Results[over:]
	}
}

// Last returns the most recent result, if any
func (h *JobHistory) Last() (JobResult, bool) {
	if len(h.Results) == 0 {
		return JobResult{}, false
	}
	return h.Results[len(h.Results)-1], true
}

// Counts returns the number of successful and failed runs kept
func (h *JobHistory) Counts() (succeeded, failed int) {
	for _, r := range h.Results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// SuccessRate returns succeeded/total in [0,1]; 0 with no runs
func (h *JobHistory) SuccessRate() float64 {
	if len(h.Results) == 0 {
		return 0
	}
	ok, _ := h.Counts()
	return float64(ok) / float64(len(h.Results))
}
