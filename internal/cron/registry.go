package cron

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Job is one unit of scheduled maintenance.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

var (
	ErrDuplicateJob = errors.New("cron job already registered")
	ErrUnknownJob   = errors.New("cron job not registered")
)

// Registry holds jobs by name and remembers registration order, which is
// also the order a cycle runs them in.
type Registry struct {
	order  []string
	byName map[string]Job
}

// NewRegistry registers each non-nil job in turn.
func NewRegistry(jobs ...Job) (*Registry, error) {
	registry := &Registry{byName: make(map[string]Job, len(jobs))}
	for _, job := range jobs {
		if job == nil {
			continue
		}
		if err := registry.Add(job); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Add registers job under its trimmed name.
func (r *Registry) Add(job Job) error {
	if job == nil {
		return errors.New("cron job is nil")
	}
	name := strings.TrimSpace(job.Name())
	if name == "" {
		return errors.New("cron job name is empty")
	}
	if r.byName == nil {
		r.byName = map[string]Job{}
	}
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}
	r.byName[name] = job
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Lookup(name string) (Job, error) {
	job, ok := r.byName[strings.TrimSpace(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return job, nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Jobs returns a fresh slice in registration order.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, 0, len(r.order))
	for _, name := range r.order {
		jobs = append(jobs, r.byName[name])
	}
	return jobs
}
