package pipeline

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/docmirror/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, job *model.PageJob) error
	callCount int
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, job *model.PageJob) error {
	m.callCount++
	if m.doFunc != nil {
		return m.doFunc(ctx, job)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

func newJob() *model.PageJob {
	return model.NewPageJob(model.Page{URL: "https://docs.example.com/sandbox/", Slug: "index"}, 1, "en", "zh-tw")
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	p := New()
	if p == nil {
		t.Fatal("expected non-nil pipeline")
	}
	if n := len(p.StepNames()); n != 0 {
		t.Errorf("expected 0 steps, got %d", n)
	}
	if p.logger == nil {
		t.Error("expected default logger")
	}
}

// TestPipelineAddSteps tests adding steps to the pipeline.
func TestPipelineAddSteps(t *testing.T) {
	t.Parallel()

	t.Run("adds single step", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(&mockStep{name: "test-step"})

		if n := len(p.StepNames()); n != 1 {
			t.Errorf("expected 1 step, got %d", n)
		}
	})

	t.Run("maintains step order", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(&mockStep{name: "first"})
		p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

		expected := []string{"first", "second", "third"}
		if names := p.StepNames(); !slices.Equal(names, expected) {
			t.Errorf("expected %v, got %v", expected, names)
		}
	})
}

// TestPipelineExecute tests pipeline execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("executes all steps in order on the same job", func(t *testing.T) {
		t.Parallel()

		p := New()
		p.AddSteps(
			&mockStep{name: "a", doFunc: func(_ context.Context, job *model.PageJob) error {
				job.Markdown += "a"
				return nil
			}},
			&mockStep{name: "b", doFunc: func(_ context.Context, job *model.PageJob) error {
				job.Markdown += "b"
				return nil
			}},
		)

		job := newJob()
		if err := p.Execute(context.Background(), job); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if job.Markdown != "ab" {
			t.Errorf("expected steps to run in order, got %q", job.Markdown)
		}
	})

	t.Run("stops at the first failing step", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		failing := &mockStep{name: "failing", doFunc: func(context.Context, *model.PageJob) error { return errBoom }}
		after := &mockStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		err := p.Execute(context.Background(), newJob())
		if !errors.Is(err, errBoom) {
			t.Fatalf("expected errBoom, got %v", err)
		}
		if !strings.HasPrefix(err.Error(), "failing: ") {
			t.Errorf("expected step name prefix, got %q", err.Error())
		}
		if after.callCount != 0 {
			t.Errorf("expected later step to be skipped, got %d calls", after.callCount)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New()
		p.AddSteps(step)

		if err := p.Execute(ctx, newJob()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount != 0 {
			t.Errorf("expected no step calls, got %d", step.callCount)
		}
	})

	t.Run("cancellation between steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		second := &mockStep{name: "second"}

		p := New()
		p.AddSteps(&mockStep{name: "first", doFunc: func(context.Context, *model.PageJob) error {
			cancel()
			return nil
		}}, second)

		if err := p.Execute(ctx, newJob()); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if second.callCount != 0 {
			t.Errorf("expected second step to be skipped, got %d calls", second.callCount)
		}
	})
}
