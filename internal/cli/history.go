package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List past exports, or show one with its markers",
		Args:  cobra.MaximumNArgs(1),
		Run:   runHistory,
	}
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("json", false, "Output JSON")
	RootCmd.AddCommand(cmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	database, repo, err := openHistory()
	if err != nil {
		exitErr("open history", err)
	}
	if repo == nil {
		exitErr("history", errors.New("history is disabled"))
	}
	defer database.Close()

	if len(args) == 1 {
		run, err := repo.GetRun(cmd.Context(), args[0])
		if err != nil {
			exitErr("get run", err)
		}
		if run == nil {
			exitErr("get run", fmt.Errorf("run %q not found", args[0]))
		}
		b, _ := json.MarshalIndent(run, "", "  ")
		fmt.Println(string(b))
		return
	}

	runs, err := repo.ListRuns(cmd.Context(), limit)
	if err != nil {
		exitErr("list runs", err)
	}
	if asJSON {
		b, _ := json.MarshalIndent(runs, "", "  ")
		fmt.Println(string(b))
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tPROFILE\tSTATUS\tMARKERS\tPROJECT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.CreatedAt.Local().Format(time.DateTime), r.Profile, r.Status, r.MarkerCount, r.ProjectName)
	}
	w.Flush()
}
