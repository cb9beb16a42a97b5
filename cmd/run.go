package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/ferntree/app"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate one year of the configured house",
	RunE:  run,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &app.Runner{Output: cmd.ErrOrStderr()}
	res := r.Run(ctx, cfgPath)
	if !res.OK {
		return fmt.Errorf("run %s: %w", res.RunID, res.Err)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d timesteps\n", res.RunID, res.Timesteps)
	return err
}
