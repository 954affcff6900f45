package pipeline

import (
	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/step"
)

// PlannedStep is one step of a planned job with its gate pre-evaluated.
// Planning is advisory: the executor re-evaluates gates at run time, since
// earlier steps can change job state.
type PlannedStep struct {
	Name  string
	Gated bool // true when the gate currently evaluates false
}

// JobPlan is the planned step list for one matrix entry.
type JobPlan struct {
	Runner string
	Steps  []PlannedStep
}

// Plan describes what a run would execute for an event.
type Plan struct {
	Event event.Event
	Jobs  []JobPlan
}

// primaryRunner picks the matrix entry that hosts the single-OS steps:
// the linux entry when present, otherwise none.
func primaryRunner(cfg *config.Config) string {
	for _, runner := range cfg.Matrix.Runners {
		if runner == config.RunnerLinux {
			return runner
		}
	}
	return ""
}

// BuildPlan expands the matrix and evaluates each step's gate against the
// event, without executing anything.
func BuildPlan(cfg *config.Config, ev event.Event, deps step.Deps) *Plan {
	primary := primaryRunner(cfg)
	plan := &Plan{Event: ev}

	for _, runner := range cfg.Matrix.Runners {
		jc := &step.JobContext{
			Runner:        runner,
			PrimaryRunner: primary,
			Event:         ev,
			Cfg:           cfg,
		}
		jp := JobPlan{Runner: runner}
		for _, s := range step.Sequence(deps) {
			jp.Steps = append(jp.Steps, PlannedStep{
				Name:  s.Name(),
				Gated: !s.Condition(jc),
			})
		}
		plan.Jobs = append(plan.Jobs, jp)
	}
	return plan
}
