package search

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/anditianred/ao3-api/internal/id"
	"github.com/anditianred/ao3-api/internal/query"
)

var (
	// ErrJobCanceled is returned by Wait for a job canceled before delivery.
	ErrJobCanceled = errors.New("search job canceled")
	// ErrJobNotFound is returned by Runner.Job for unknown or expired ids.
	ErrJobNotFound = errors.New("search job not found")
	// ErrRunnerClosed is returned by Submit after Close.
	ErrRunnerClosed = errors.New("search runner closed")
	// ErrJobPending is returned by Result before the job has an outcome.
	ErrJobPending = errors.New("search job still running")
)

// SearchFunc runs one search pipeline.
type SearchFunc func(ctx context.Context, q query.SearchQuery) (*Result, error)

// DefaultJobRetention is how long finished jobs stay retrievable by id.
const DefaultJobRetention = 10 * time.Minute

// Runner runs searches on a bounded worker pool.
type Runner struct {
	search    SearchFunc
	pool      *ants.Pool
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time

	mu   sync.Mutex
	jobs map[string]*Job
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner) error

// WithWorkers sets the number of searches run at once.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) error {
		if n < 1 {
			n = 1
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		if r.pool != nil {
			r.pool.Release()
		}
		r.pool = pool
		return nil
	}
}

// WithRunnerLogger sets the logger. Default is slog.Default().
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithJobRetention sets how long finished jobs stay retrievable by id.
func WithJobRetention(d time.Duration) RunnerOption {
	return func(r *Runner) error {
		r.retention = d
		return nil
	}
}

// NewRunner creates a runner that executes search for every submitted query.
func NewRunner(search SearchFunc, opts ...RunnerOption) (*Runner, error) {
	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	r := &Runner{
		search:    search,
		pool:      pool,
		logger:    slog.Default(),
		retention: DefaultJobRetention,
		now:       time.Now,
		jobs:      make(map[string]*Job),
	}

	for _, opt := range opts {
		if optErr := opt(r); optErr != nil {
			r.pool.Release()
			return nil, optErr
		}
	}

	return r, nil
}

// Submit queues q and returns its job. onDone, when non-nil, is called once
// with the outcome unless the job is canceled first. The job keeps ctx's
// values but not its cancellation; use Job.Cancel to stop it.
func (r *Runner) Submit(ctx context.Context, q query.SearchQuery, onDone func(*Result, error)) (*Job, error) {
	jobID, err := id.Generate("search")
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	jobCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	job := &Job{
		ID:        jobID,
		Query:     q,
		Submitted: r.now(),
		ctx:       jobCtx,
		cancel:    cancel,
		done:      make(chan struct{}),
		onDone:    onDone,
	}

	r.mu.Lock()
	r.pruneLocked()
	r.jobs[job.ID] = job
	r.mu.Unlock()

	err = r.pool.Submit(func() {
		defer cancel()
		if err := job.ctx.Err(); err != nil {
			job.finish(nil, err, r.now())
			return
		}
		res, err := r.search(job.ctx, job.Query)
		job.finish(res, err, r.now())
		r.logger.Debug("search job finished", "job", job.ID, "error", err)
	})
	if err != nil {
		cancel()
		r.mu.Lock()
		delete(r.jobs, job.ID)
		r.mu.Unlock()
		if errors.Is(err, ants.ErrPoolClosed) {
			return nil, ErrRunnerClosed
		}
		return nil, err
	}

	r.logger.Debug("search job submitted", "job", job.ID, "page", q.Page)
	return job, nil
}

// Job returns a submitted job by id.
func (r *Runner) Job(jobID string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrJobNotFound
	}
	return job, nil
}

// Running returns the number of jobs currently executing.
func (r *Runner) Running() int {
	return r.pool.Running()
}

// pruneLocked drops jobs that finished more than the retention period ago.
func (r *Runner) pruneLocked() {
	cutoff := r.now().Add(-r.retention)
	for k, job := range r.jobs {
		if at, ok := job.finishedAt(); ok && at.Before(cutoff) {
			delete(r.jobs, k)
		}
	}
}

// Close stops accepting jobs and waits up to timeout for running ones.
func (r *Runner) Close(timeout time.Duration) error {
	return r.pool.ReleaseTimeout(timeout)
}

// Shutdown implements do.Shutdownable.
func (r *Runner) Shutdown() error {
	return r.Close(30 * time.Second)
}

// Job is one background search. A job runs its pipeline once and delivers
// its outcome once.
type Job struct {
	ID        string
	Query     query.SearchQuery
	Submitted time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	onDone func(*Result, error)

	finishOnce sync.Once
	mu         sync.Mutex
	canceled   bool
	finished   time.Time
	result     *Result
	err        error
}

// Done is closed once the job has an outcome or was canceled.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Cancel stops the job. A fetch in flight is interrupted; a result that
// is already complete but not yet delivered is discarded. Cached pages are
// never left half written. Cancel after delivery has no effect.
func (j *Job) Cancel() {
	j.finishOnce.Do(func() {
		j.mu.Lock()
		j.canceled = true
		j.err = ErrJobCanceled
		j.mu.Unlock()
		close(j.done)
	})
	j.cancel()
}

// Wait blocks until the job finishes or ctx is done.
func (j *Job) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-j.done:
		return j.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome, or ErrJobPending while the job runs.
func (j *Job) Result() (*Result, error) {
	select {
	case <-j.done:
	default:
		return nil, ErrJobPending
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

// Canceled reports whether the job was canceled before delivery.
func (j *Job) Canceled() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.canceled
}

func (j *Job) finish(res *Result, err error, now time.Time) {
	delivered := false
	j.finishOnce.Do(func() {
		j.mu.Lock()
		j.result = res
		j.err = err
		j.finished = now
		j.mu.Unlock()
		close(j.done)
		delivered = true
	})

	if !delivered {
		// canceled first; record the end time so the job can be pruned
		j.mu.Lock()
		j.finished = now
		j.mu.Unlock()
		return
	}
	if j.onDone != nil {
		j.onDone(res, err)
	}
}

func (j *Job) finishedAt() (time.Time, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finished, !j.finished.IsZero()
}
