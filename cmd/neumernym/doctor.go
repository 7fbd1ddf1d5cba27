package main

import (
	"fmt"

	"github.com/example/go-neumernym/internal/analysis"
	"github.com/example/go-neumernym/internal/doctor"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run pipeline and configuration self-checks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			checks := doctor.CaseChecks(doctor.PipelineCases(), analysis.Analyze)
			checks = append(checks, doctor.Check{Name: "configuration", Run: cfg.Validate})

			result := doctor.Run(doctor.Config{Checks: checks}, cmd.OutOrStdout())
			if result.Failed() {
				return fmt.Errorf("doctor found %d issue(s)", len(result.Failures()))
			}
			return nil
		},
	}

	return cmd
}
