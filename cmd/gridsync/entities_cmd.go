package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesflow/gridsync/modules/production"
)

func newEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List the registered entity screens and their columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ENTITY\tKEY\tCOLUMNS")
			for _, name := range production.Names() {
				cfg, err := production.Config(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", cfg.Name, cfg.KeyField, len(cfg.Columns))
			}
			return w.Flush()
		},
	}
}
