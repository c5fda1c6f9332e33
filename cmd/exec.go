package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/luma/redwire/internal/render"
	"github.com/luma/redwire/protocol"
	"github.com/luma/redwire/redis"
)

var ExecCmd = &cobra.Command{
	Use:   "exec <command> [args...]",
	Short: "Run a single command and print the reply as JSON",
	Long: `Run a single command and print the reply as JSON

Usage
	redwire exec SET greeting hello
	redwire exec --db 2 LRANGE mylist 0 -1

`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		conf, log, err := setup(ctx, cmd)
		if err != nil {
			return err
		}

		defer log.Sync() //nolint:errcheck

		r, err := redis.Dial(ctx, clientOptions(conf, log))
		if err != nil {
			return err
		}

		defer func() {
			err = multierr.Append(err, r.Close())
		}()

		arguments := make([]interface{}, len(args)-1)
		for i, arg := range args[1:] {
			arguments[i] = arg
		}

		reply, err := r.Execute(ctx, args[0], arguments...)

		var cmdErr *redis.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Kind == redis.ServerReply {
			// Error replies are printed like any other reply
			reply, err = protocol.Error(cmdErr.Detail), nil
		}

		if err != nil {
			return err
		}

		out, err := render.Document(reply)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	// Flags must come before the command so arguments such as -1 reach it
	ExecCmd.Flags().SetInterspersed(false)
}
