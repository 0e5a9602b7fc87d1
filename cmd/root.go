// Package cmd provides the CLI for the autoreply service.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "autoreply",
	Short: "Guest-messaging autoreply composer for short-term rentals",
	Long:  `autoreply drafts policy-guarded replies to guest messages using reservation, listing, calendar, and payment context.`,
}

func Execute() error {
	return rootCmd.Execute()
}
