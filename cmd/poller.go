package cmd

import (
	"content_trans_api/service/poller"

	"github.com/spf13/cobra"
)

var pollerCmd = &cobra.Command{
	Use:   "poller",
	Short: "Pull-mode provider poller.",
	Long:  `Pull-mode provider poller.`,
	Run: func(cmd *cobra.Command, args []string) {
		poller.Run()
	},
}

func init() {
	rootCmd.AddCommand(pollerCmd)
}
