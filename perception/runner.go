package perception

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	goutils "go.viam.com/utils"

	"github.com/snipe75/tum-tb-perception/logging"
)

// Runner polls the pipeline in the background: whenever a fresh detection
// batch has been latched, it runs one estimation cycle and publishes the
// result. Results are delivered on a capacity-1 channel with latest-wins
// semantics, mirroring how the inputs are latched.
type Runner struct {
	pipeline *Pipeline
	logger   logging.Logger
	clk      clock.Clock

	results                 chan Result
	cancelCtx               context.Context
	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup
}

// NewRunner creates a runner for the pipeline using the wall clock.
func NewRunner(pipeline *Pipeline) *Runner {
	return NewRunnerWithClock(pipeline, clock.New())
}

// NewRunnerWithClock creates a runner with an injected clock for tests.
func NewRunnerWithClock(pipeline *Pipeline, clk clock.Clock) *Runner {
	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	return &Runner{
		pipeline:   pipeline,
		logger:     pipeline.logger,
		clk:        clk,
		results:    make(chan Result, 1),
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
	}
}

// Results returns the channel estimation results are published on. Only the
// most recent unread result is retained.
func (r *Runner) Results() <-chan Result {
	return r.results
}

// Start launches the background polling loop.
func (r *Runner) Start() {
	r.activeBackgroundWorkers.Add(1)
	goutils.PanicCapturingGo(func() {
		defer r.activeBackgroundWorkers.Done()
		ticker := r.clk.Ticker(r.pipeline.cfg.pollInterval())
		defer ticker.Stop()
		for {
			select {
			case <-r.cancelCtx.Done():
				return
			case <-ticker.C:
			}
			if !r.pipeline.hasFreshDetections() {
				continue
			}
			result, err := r.pipeline.EstimateOnce(r.cancelCtx)
			if err != nil {
				r.logger.Debugw("estimation cycle skipped", "error", err)
				continue
			}
			r.publish(result)
		}
	})
}

// publish delivers the result, dropping the previous unread one if necessary.
func (r *Runner) publish(result Result) {
	for {
		select {
		case r.results <- result:
			return
		default:
		}
		select {
		case <-r.results:
		default:
		}
	}
}

// Close stops the polling loop and waits for it to exit.
func (r *Runner) Close() error {
	r.cancelFunc()
	r.activeBackgroundWorkers.Wait()
	return nil
}
