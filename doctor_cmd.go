package main

import (
	"fmt"
	"runtime"

	"github.com/dgnsrekt/clipspeak/internal/doctor"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the programs clipspeak needs",
	Long: paragraph(fmt.Sprintf("\n%s the clipboard, speech engines and helper programs the current configuration relies on, with install instructions for anything missing.",
		keyword("Check"))),
	Args: cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		report := doctor.Run(doctor.Checkers(cfg, runtime.GOOS, doctor.Platform(runtime.GOOS))...)
		fmt.Print(report.Render())
		return report.Err() //nolint:wrapcheck
	},
}
