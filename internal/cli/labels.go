package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/heimdex/markers-extractor/internal/export"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "labels",
		Short: "List the fields accepted by --label",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			for _, f := range export.Fields {
				fmt.Fprintf(w, "%s\t%s\n", f, f.Header())
			}
			w.Flush()
		},
	})
}
