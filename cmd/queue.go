package cmd

import (
	"content_trans_api/service/worker"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Notification processing queue.",
	Long:  `Notification processing queue.`,
	Run: func(cmd *cobra.Command, args []string) {
		worker.Run()
	},
}

func init() {
	rootCmd.AddCommand(queueCmd)
}
