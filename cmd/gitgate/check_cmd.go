package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/zhubert/gitgate/cli"
	"github.com/zhubert/gitgate/paths"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check prerequisites and the repository configuration",
		Long: `Check that git is installed, then load and validate the configuration
and print the resolved repository contexts without starting the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			checker := cli.NewChecker(nil)
			results := checker.CheckAll(cmd.Context(), cli.DefaultPrerequisites())
			fmt.Fprint(out, cli.FormatCheckResults(results))
			if err := cli.ValidateRequired(results); err != nil {
				return err
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			router, err := cfg.Router()
			if err != nil {
				return err
			}

			var errs []error
			fmt.Fprintln(out, "\nRepositories:")
			for _, c := range router.Contexts() {
				status := "✓"
				if _, err := os.Stat(c.WorkingDirectory); err != nil {
					status = "✗"
					errs = append(errs, fmt.Errorf("%s: %w", c.Label(), err))
				}
				fmt.Fprintf(out, "  %s %s %s (%s -> %s/%s)\n", status, c.Label(), c.WorkingDirectory,
					c.LocalBranch, c.RemoteName, c.RemoteBranch)
			}
			layout := "xdg"
			if paths.IsFlatLayout() {
				layout = "flat"
			}
			configDir, _ := paths.ConfigDir()
			fmt.Fprintf(out, "\nConfig: %s (layout %s)\n", lo.CoalesceOrEmpty(cfg.FilePath(), "none, searched "+configDir), layout)
			if logFile, err := logFilePath(cfg); err == nil {
				fmt.Fprintf(out, "Diagnostics: %s\n", lo.CoalesceOrEmpty(logFile, "stderr"))
			}
			if dir, _ := cfg.ResolvedLogDir(); dir != "" {
				fmt.Fprintf(out, "Journal: %s\n", dir)
			} else {
				fmt.Fprintln(out, "Journal: in memory")
			}
			return errors.Join(errs...)
		},
	}
}
