package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the config file and seed the reservation store",
		Long:  "Create the configuration directory and config.yaml if missing, then open the\nconfigured backend, writing the default tables on first use.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.open(cmd)
			if err != nil {
				return err
			}
			defer res.Close()

			if a.jsonMode {
				return printJSON(out(cmd), map[string]any{
					"config_dir": a.resolvedConfigDir,
					"data_dir":   a.cfg.DataDir,
					"backend":    a.cfg.Backend,
					"tables":     len(res.Tables()),
				})
			}
			w := out(cmd)
			fmt.Fprintln(w, "Little Lemon reservations initialized")
			fmt.Fprintln(w, "  config: ", a.resolvedConfigDir)
			fmt.Fprintln(w, "  data:   ", a.cfg.DataDir)
			fmt.Fprintln(w, "  backend:", a.cfg.Backend)
			fmt.Fprintln(w, "  tables: ", len(res.Tables()))
			return nil
		},
	}
}
