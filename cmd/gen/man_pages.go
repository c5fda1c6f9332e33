package gen

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/luma/redwire/internal/meta"
)

var (
	manDir string
)

var ManPagesCmd = &cobra.Command{
	Use:   "man",
	Short: "Generate man pages for redwire",
	Long: `Generate up-to-date man pages for every redwire command, one file per
command, in the "man" directory under the current directory unless --dir
says otherwise.`,
	Args: cobra.NoArgs,

	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if _, err := os.Stat(manDir); os.IsNotExist(err) {
			fmt.Fprintln(out, "Directory", manDir, "does not exist, creating...")
			if err := os.MkdirAll(manDir, 0750); err != nil {
				return err
			}
		}

		fmt.Fprintln(out, "Generating redwire man pages in", manDir, "...")

		if err := GenManPages(cmd.Root(), manDir); err != nil {
			return err
		}

		fmt.Fprintln(out, "Done.")
		return nil
	},
}

// GenManPages writes a section 1 man page for root and each of its
// subcommands into dir, which must exist.
func GenManPages(root *cobra.Command, dir string) error {
	header := &doc.GenManHeader{
		Section: "1",
		Manual:  "redwire Manual",
		Source:  fmt.Sprintf("redwire %s", meta.GetInfo().Version),
	}

	root.DisableAutoGenTag = true

	return doc.GenManTree(root, header, dir)
}

func init() {
	flags := ManPagesCmd.PersistentFlags()

	flags.StringVar(&manDir, "dir", "man", "the directory to write the man pages.")

	// For bash-completion
	if err := flags.SetAnnotation("dir", cobra.BashCompSubdirsInDir, []string{}); err != nil {
		panic(err)
	}
}
