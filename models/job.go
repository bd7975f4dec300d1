package models

import (
	"sync"
	"time"
)

// Job status values for async scrapes.
const (
	JobPending    = "pending"
	JobProcessing = "processing"
	JobCompleted  = "completed"
	JobFailed     = "failed"
)

// JobResponse is the immediate response for POST /api/v1/scrape/async.
type JobResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// JobStatusResponse is the response for GET /api/v1/jobs/:id.
type JobStatusResponse struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Progress int             `json:"progress"` // 0-100
	Message  string          `json:"message,omitempty"`
	Result   *ScrapeResponse `json:"result,omitempty"`
	Error    *ErrorDetail    `json:"error,omitempty"`
}

// ScrapeJob tracks an async scrape. The scrape goroutine advances it while
// poll handlers read it, so the mutable fields sit behind a mutex and all
// access goes through the methods below.
type ScrapeJob struct {
	ID        string
	URL       string
	CreatedAt int64 // unix timestamp

	mu       sync.Mutex
	status   string
	progress int
	message  string
	result   *ScrapeResponse
}

// NewScrapeJob creates a pending job.
func NewScrapeJob(id, url string) *ScrapeJob {
	return &ScrapeJob{
		ID:        id,
		URL:       url,
		CreatedAt: time.Now().Unix(),
		status:    JobPending,
	}
}

// Start marks the job as picked up by a scrape goroutine.
func (j *ScrapeJob) Start() {
	j.mu.Lock()
	j.status = JobProcessing
	j.mu.Unlock()
}

// SetProgress records pipeline progress while the scrape runs.
func (j *ScrapeJob) SetProgress(message string, pct int) {
	j.mu.Lock()
	j.message = message
	j.progress = pct
	j.mu.Unlock()
}

// Complete stores the final result and marks the job done. The result
// must not be mutated after this call.
func (j *ScrapeJob) Complete(result *ScrapeResponse) {
	j.mu.Lock()
	j.result = result
	j.progress = 100
	j.status = JobCompleted
	j.mu.Unlock()
}

// Fail stores the failure result and marks the job failed.
func (j *ScrapeJob) Fail(result *ScrapeResponse, message string) {
	j.mu.Lock()
	j.result = result
	j.message = message
	j.status = JobFailed
	j.mu.Unlock()
}

// Snapshot returns a consistent view of the job for the poll endpoint.
func (j *ScrapeJob) Snapshot() JobStatusResponse {
	j.mu.Lock()
	defer j.mu.Unlock()
	resp := JobStatusResponse{
		ID:       j.ID,
		Status:   j.status,
		Progress: j.progress,
		Message:  j.message,
		Result:   j.result,
	}
	if j.result != nil && j.result.Error != nil {
		resp.Error = j.result.Error
	}
	return resp
}
