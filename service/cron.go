package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
)

var (
	JobNotFound = errors.New("job not found")
	JobExists   = errors.New("job id exists")
)

// Job is a Request that runs on a cron schedule.
type Job struct {
	Id string `json:"id"`

	// Schedule is a cron expression (see
	// github.com/gorhill/cronexpr).
	Schedule string `json:"schedule"`

	Request *Request `json:"request"`

	// Next is when the job will run next.
	Next time.Time `json:"next"`

	expr *cronexpr.Expression
}

// Scheduler runs Jobs with a Service.
type Scheduler struct {
	Service *Service

	// Now is the clock.  Defaults to time.Now.
	Now func() time.Time

	// Done, if not nil, gets each Job's outcome.
	Done func(j *Job, resp *Response, err error)

	Debug bool

	sync.Mutex
	jobs map[string]*Job
}

func NewScheduler(s *Service) *Scheduler {
	return &Scheduler{
		Service: s,
		Now:     time.Now,
		jobs:    make(map[string]*Job),
	}
}

func (s *Scheduler) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("Scheduler."+format, args...)
	}
}

// Add parses the Job's Schedule and computes its Next time.
func (s *Scheduler) Add(j *Job) error {
	if j.Request == nil {
		return errors.New("job has no request")
	}
	expr, err := cronexpr.Parse(j.Schedule)
	if err != nil {
		return err
	}
	j.expr = expr
	j.Next = expr.Next(s.Now())
	if j.Next.IsZero() {
		return errors.New("schedule never fires")
	}

	s.Lock()
	defer s.Unlock()

	if _, have := s.jobs[j.Id]; have {
		return JobExists
	}
	s.jobs[j.Id] = j
	s.logf("Add %s next %s", j.Id, j.Next.Format(time.RFC3339))
	return nil
}

func (s *Scheduler) Rem(id string) error {
	s.Lock()
	defer s.Unlock()

	if _, have := s.jobs[id]; !have {
		return JobNotFound
	}
	delete(s.jobs, id)
	return nil
}

// Jobs returns the pending Jobs ordered by Next.
func (s *Scheduler) Jobs() []*Job {
	s.Lock()
	defer s.Unlock()

	js := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		js = append(js, j)
	}

	sort.Slice(js, func(i, j int) bool {
		if js[i].Next.Equal(js[j].Next) {
			return js[i].Id < js[j].Id
		}
		return js[i].Next.Before(js[j].Next)
	})
	return js
}

// Tick runs every Job that is due and reschedules it.  A Job whose
// schedule has no more times is removed.  Returns the number of Jobs
// run.
func (s *Scheduler) Tick(ctx context.Context) int {
	now := s.Now()

	var due []*Job
	s.Lock()
	for _, j := range s.jobs {
		if !j.Next.After(now) {
			due = append(due, j)
		}
	}
	s.Unlock()
	sort.Slice(due, func(i, j int) bool {
		return due[i].Id < due[j].Id
	})

	for _, j := range due {
		s.logf("Tick running %s", j.Id)
		resp, err := s.Service.Run(ctx, j.Request)
		if err != nil {
			log.Printf("Scheduler.Tick job %s error %v", j.Id, err)
		}
		if s.Done != nil {
			s.Done(j, resp, err)
		}

		s.Lock()
		if j.Next = j.expr.Next(now); j.Next.IsZero() {
			delete(s.jobs, j.Id)
		}
		s.Unlock()
	}

	return len(due)
}

// Run Ticks at the given interval until the context is done.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}
