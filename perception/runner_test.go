package perception

import (
	"testing"
	"time"

	"go.viam.com/test"

	"github.com/snipe75/tum-tb-perception/logging"
)

func TestRunnerPublishesResults(t *testing.T) {
	cfg := NewConfig()
	cfg.PollIntervalMs = 5
	pipeline, err := NewPipeline(cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)

	scene := makeBoardScene(t, 0.3)
	test.That(t, pipeline.SetIntrinsics(testIntrinsics), test.ShouldBeNil)
	pipeline.SetPointCloud(scene.cloud)
	pipeline.SetDetections(scene.detections)

	runner := NewRunner(pipeline)
	runner.Start()
	defer func() {
		test.That(t, runner.Close(), test.ShouldBeNil)
	}()

	select {
	case result := <-runner.Results():
		test.That(t, result.OrientationValid, test.ShouldBeTrue)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for a result")
	}

	// the batch was consumed; no further cycle runs until a new one arrives
	test.That(t, pipeline.hasFreshDetections(), test.ShouldBeFalse)
}

func TestRunnerLatestWins(t *testing.T) {
	pipeline, err := NewPipeline(NewConfig(), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	runner := NewRunner(pipeline)

	runner.publish(Result{Attempts: 1})
	runner.publish(Result{Attempts: 2})
	result := <-runner.Results()
	test.That(t, result.Attempts, test.ShouldEqual, 2)
	select {
	case <-runner.Results():
		t.Fatal("expected only the latest result to be retained")
	default:
	}
}
