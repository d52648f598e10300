// Copyright (c) 2015-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.
//

// Package main is the entry point to the webhook delivery server.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mattermost/webhookd/model"
)

var instanceID string

var rootCmd = &cobra.Command{
	Use:   "webhookd",
	Short: "Webhookd ingests webhook payloads and delivers them to registered subscriptions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serverCmd.RunE(serverCmd, args)
	},
	// SilenceErrors allows us to explicitly log the error returned from rootCmd below.
	SilenceErrors: true,
}

func init() {
	instanceID = model.NewID()

	rootCmd.AddCommand(serverCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("command failed")
		os.Exit(1)
	}
}
