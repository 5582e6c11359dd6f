package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pwdrift/pwdrift/pkg/policy"
)

// Task is one unit of detection work, usually "collect and compare one
// (component, category) pair". Run must be safe to call more than once;
// the scheduler retries transient failures.
type Task struct {
	// Component is the managed component the task touches.
	Component policy.Component

	// Category is the policy category the task inspects.
	Category policy.Category

	// Run performs the work.
	Run func(ctx context.Context) error
}

// Result is the outcome of one task.
type Result struct {
	// Component and Category identify the task.
	Component policy.Component
	Category  policy.Category

	// Err is the final error after retries, nil on success.
	Err error

	// Attempts is how many times Run was called.
	Attempts int

	// Duration is the total wall time spent on the task.
	Duration time.Duration
}

// Scheduler executes tasks with bounded parallelism. Tasks against the
// same component run serially so a single SSH session is never shared
// across goroutines; different components proceed concurrently.
type Scheduler struct {
	maxParallel int
	maxRetries  int
	retryDelay  time.Duration
	logger      zerolog.Logger
}

// NewScheduler creates a scheduler running up to maxParallel components
// at once. Values below one select the default of four.
func NewScheduler(maxParallel int, logger zerolog.Logger) *Scheduler {
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &Scheduler{
		maxParallel: maxParallel,
		maxRetries:  2,
		retryDelay:  500 * time.Millisecond,
		logger:      logger,
	}
}

// WithRetries overrides the retry policy. maxRetries counts retries, not
// attempts; zero disables retrying.
func (s *Scheduler) WithRetries(maxRetries int, delay time.Duration) *Scheduler {
	s.maxRetries = maxRetries
	s.retryDelay = delay
	return s
}

// Run executes all tasks and returns one result per task, in task order.
// Task failures are reported in the results, not as an error; the only
// returned error is context cancellation.
func (s *Scheduler) Run(ctx context.Context, tasks []Task) ([]Result, error) {
	results := make([]Result, len(tasks))

	// Group by component to keep per-component execution serial.
	groups := make(map[policy.Component][]int)
	var order []policy.Component
	for i, task := range tasks {
		if _, ok := groups[task.Component]; !ok {
			order = append(order, task.Component)
		}
		groups[task.Component] = append(groups[task.Component], i)
	}

	sem := make(chan struct{}, s.maxParallel)
	done := make(chan struct{})
	for _, comp := range order {
		indexes := groups[comp]
		go func() {
			defer func() { done <- struct{}{} }()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				for _, i := range indexes {
					results[i] = Result{Component: tasks[i].Component, Category: tasks[i].Category, Err: ctx.Err()}
				}
				return
			}
			defer func() { <-sem }()
			for _, i := range indexes {
				results[i] = s.runTask(ctx, tasks[i])
			}
		}()
	}
	for range order {
		<-done
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func (s *Scheduler) runTask(ctx context.Context, task Task) (result Result) {
	result = Result{Component: task.Component, Category: task.Category}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	for {
		result.Attempts++
		err := task.Run(ctx)
		if err == nil {
			result.Err = nil
			return result
		}
		result.Err = err

		if result.Attempts > s.maxRetries || !IsTransient(err) {
			return result
		}
		s.logger.Warn().
			Err(err).
			Str("component", string(task.Component)).
			Str("category", string(task.Category)).
			Int("attempt", result.Attempts).
			Msg("transient failure, retrying")

		select {
		case <-time.After(s.retryDelay * time.Duration(result.Attempts)):
		case <-ctx.Done():
			result.Err = ctx.Err()
			return result
		}
	}
}
