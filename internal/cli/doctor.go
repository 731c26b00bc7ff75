package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Check the ffmpeg tools used for thumbnails",
		Args:  cobra.NoArgs,
		Run:   runDoctor,
	})
}

func runDoctor(cmd *cobra.Command, _ []string) {
	caps, err := newFFmpeg().Check(cmd.Context())
	if err != nil {
		exitErr("doctor", err)
	}
	b, _ := json.MarshalIndent(caps, "", "  ")
	fmt.Println(string(b))
	if !caps.CanRender() {
		os.Exit(1)
	}
}
