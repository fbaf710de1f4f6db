package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Job represents a scheduled task that runs inside the reminder worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// JobOption tunes how the service runs a registered job.
type JobOption func(*registration)

// WithTimeout bounds a single run of the job.
func WithTimeout(d time.Duration) JobOption {
	return func(r *registration) { r.timeout = d }
}

type registration struct {
	job     Job
	timeout time.Duration
}

// Registry holds the jobs run on each cycle, in registration order.
type Registry struct {
	mu      sync.RWMutex
	entries []registration
}

// NewRegistry builds a registry preloaded with jobs. Nil jobs are skipped and
// a duplicate name keeps the first registration.
func NewRegistry(jobs ...Job) *Registry {
	r := &Registry{}
	for _, job := range jobs {
		if job != nil {
			_ = r.Register(job)
		}
	}
	return r
}

// Register adds job. Names label metrics and log lines, so they must be
// non-empty and unique.
func (r *Registry) Register(job Job, opts ...JobOption) error {
	if job == nil {
		return errors.New("job is nil")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return errors.New("job name is required")
	}
	entry := registration{job: job}
	for _, opt := range opts {
		opt(&entry)
	}
	if entry.timeout < 0 {
		return fmt.Errorf("job %q: negative timeout", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.entries {
		if existing.job.Name() == name {
			return fmt.Errorf("job %q already registered", name)
		}
	}
	r.entries = append(r.entries, entry)
	return nil
}

// Jobs returns the registered jobs in the order they were added.
func (r *Registry) Jobs() []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	jobs := make([]Job, 0, len(r.entries))
	for _, entry := range r.entries {
		jobs = append(jobs, entry.job)
	}
	return jobs
}

func (r *Registry) snapshot() []registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]registration(nil), r.entries...)
}
