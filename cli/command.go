package cli

import (
	"github.com/spf13/cobra"

	"github.com/andydunstall/drift/cli/demo"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "drift [command] (flags)",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Long: `Drift is a convergent gossip engine.

Shells periodically exchange payloads with a selection of their known
peers, so every shell's state converges on the same value. The policy of
what to gossip, to whom, and how to merge is pluggable per stream.

Drift is a library; this binary runs demonstrations of it.

Start an in-process cluster of shells converging a counter set with:

  $ drift demo

You can then inspect shell status via the admin API:

  $ curl http://localhost:7002/status/gossip
`,
	}

	cmd.AddCommand(demo.NewCommand())

	return cmd
}

func init() {
	cobra.EnableCommandSorting = false
}
