package commands

import (
	"fmt"

	"github.com/pipewright/pipewright/internal/config"
	"github.com/pipewright/pipewright/internal/event"
	"github.com/pipewright/pipewright/internal/pipeline"
	"github.com/pipewright/pipewright/internal/step"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Plan bool `help:"Also print the execution plan for a push to the main branch"`
}

func (v *ValidateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	fmt.Printf("Configuration OK: %s\n", root.Config)
	fmt.Printf("Runners: %v\n", cfg.Matrix.Runners)
	fmt.Printf("Timeout: %d minutes\n", cfg.TimeoutMinutes)
	if cfg.Publish.Enabled {
		fmt.Printf("Publish: enabled for %s version tags\n", cfg.Publish.CanonicalRepo)
	} else {
		fmt.Println("Publish: disabled")
	}

	if v.Plan {
		printPlan(cfg)
	}
	return nil
}

func printPlan(cfg *config.Config) {
	ev := event.Push(cfg.Repository.Name, cfg.Repository.MainBranch, "")
	plan := pipeline.BuildPlan(cfg, ev, step.Deps{})
	fmt.Printf("\nPlan for push to %s:\n", cfg.Repository.MainBranch)
	for _, job := range plan.Jobs {
		fmt.Printf("  %s:\n", job.Runner)
		for _, s := range job.Steps {
			marker := "run"
			if s.Gated {
				marker = "skip"
			}
			fmt.Printf("    %-14s %s\n", s.Name, marker)
		}
	}
}
