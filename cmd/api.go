package cmd

import (
	"content_trans_api/service/api"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "api",
	Short: "Translation request API service.",
	Long:  `Translation request API service.`,
	Run: func(cmd *cobra.Command, args []string) {
		api.Run()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
