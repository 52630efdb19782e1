package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/pagescope/internal/model"
)

// mockStep records its execution and optionally fails.
type mockStep struct {
	name     string
	err      error
	executed *[]string
	cancel   context.CancelFunc
}

func (m *mockStep) Do(_ context.Context, _ *model.PageReport) error {
	*m.executed = append(*m.executed, m.name)
	if m.cancel != nil {
		m.cancel()
	}
	return m.err
}

func (m *mockStep) Name() string {
	return m.name
}

// TestPipelineNew tests pipeline construction.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	p := New()
	if p.logger == nil {
		t.Error("expected default logger")
	}
	if p.continueOnError {
		t.Error("expected continueOnError to default to false")
	}
	if p.StepCount() != 0 {
		t.Errorf("expected no steps, got %d", p.StepCount())
	}

	var executed []string
	p.AddStep(&mockStep{name: "a", executed: &executed})
	p.AddSteps(&mockStep{name: "b", executed: &executed}, &mockStep{name: "c", executed: &executed})
	names := p.StepNames()
	if len(names) != 3 || names[0] != "a" || names[2] != "c" {
		t.Errorf("unexpected step names %v", names)
	}
}

// TestPipelineExecute tests step execution semantics.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var executed []string
		p := New()
		p.AddSteps(
			&mockStep{name: StepFetch, executed: &executed},
			&mockStep{name: StepExtract, executed: &executed},
			&mockStep{name: StepProbe, executed: &executed},
		)

		report := model.NewPageReport("https://acme.example/")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(executed) != 3 || executed[0] != StepFetch || executed[2] != StepProbe {
			t.Errorf("unexpected execution order %v", executed)
		}
		if len(report.PerformedSteps) != 3 {
			t.Errorf("expected 3 performed steps, got %v", report.PerformedSteps)
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var executed []string
		boom := errors.New("boom")
		p := New()
		p.AddSteps(
			&mockStep{name: "first", executed: &executed, err: boom},
			&mockStep{name: "second", executed: &executed},
		)

		report := model.NewPageReport("https://acme.example/")
		err := p.Execute(context.Background(), report)
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if len(executed) != 1 {
			t.Errorf("expected one executed step, got %v", executed)
		}
		if report.ErrorMessage != "boom" || len(report.PerformedSteps) != 0 {
			t.Errorf("unexpected report state %+v", report)
		}
	})

	t.Run("continue on error", func(t *testing.T) {
		t.Parallel()

		var executed []string
		p := New(WithContinueOnError(true))
		p.AddSteps(
			&mockStep{name: "first", executed: &executed, err: errors.New("boom")},
			&mockStep{name: "second", executed: &executed},
		)

		report := model.NewPageReport("https://acme.example/")
		if err := p.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(executed) != 2 {
			t.Errorf("expected both steps, got %v", executed)
		}
		if report.Error == nil {
			t.Error("expected error to be recorded")
		}
	})

	t.Run("cancellation between steps", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var executed []string
		p := New()
		p.AddSteps(
			&mockStep{name: "first", executed: &executed, cancel: cancel},
			&mockStep{name: "second", executed: &executed},
		)

		report := model.NewPageReport("https://acme.example/")
		err := p.Execute(ctx, report)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if !report.TimedOut {
			t.Error("expected TimedOut to be set")
		}
		if len(executed) != 1 {
			t.Errorf("expected the second step to be skipped, got %v", executed)
		}
	})
}
