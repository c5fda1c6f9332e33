package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/luma/redwire/redis"
)

var (
	scanMatch string
	scanCount int64
	scanType  string
	scanKey   string
	scanKind  string
)

var ScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Print every key of the database, or every element of a collection",
	Long: `Print every key of the database, or every element of a collection

Usage
	redwire scan --match 'user:*'
	redwire scan --kind hash --key user:1

Hash and sorted set elements are printed one per line, each field or member
followed by its value or score.

`,
	Args: cobra.NoArgs,
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

		if scanKind != "keys" && scanKey == "" {
			return fmt.Errorf("--key is required to scan a %s", scanKind)
		}

		opts := redis.ScanOptions{Match: scanMatch, Count: scanCount, Type: scanType}

		var iter *redis.ScanIterator
		switch scanKind {
		case "keys":
			iter = r.ScanIter(opts)
		case "set":
			iter = r.SScanIter(scanKey, opts)
		case "hash":
			iter = r.HScanIter(scanKey, opts)
		case "zset":
			iter = r.ZScanIter(scanKey, opts)
		default:
			return fmt.Errorf("unknown kind %q, expected keys, set, hash or zset", scanKind)
		}

		out := cmd.OutOrStdout()
		n := 0

		for iter.Next(ctx) {
			fmt.Fprintln(out, string(iter.Val()))
			n++
		}

		if err := iter.Err(); err != nil {
			log.Error("Scan stopped early",
				zap.String("cursor", string(iter.Cursor())),
				zap.Int("printed", n),
				zap.Error(err))
			return err
		}

		return nil
	},
}

func init() {
	flags := ScanCmd.Flags()

	flags.StringVar(&scanMatch, "match", "", "Only print elements matching this glob pattern")
	flags.Int64Var(&scanCount, "count", 0, "How much work the server does per page")
	flags.StringVar(&scanType, "type", "", "Only print keys of this type")
	flags.StringVar(&scanKind, "kind", "keys", "What to scan: keys, set, hash or zset")
	flags.StringVar(&scanKey, "key", "", "The collection to scan when --kind is not keys")
}
