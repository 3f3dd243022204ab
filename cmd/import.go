package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"mailtriage/internal/inbox"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import unread messages from the configured mailbox",
	Long: `Fetch unread messages from the mailbox selected by INBOX_PROVIDER (imap or
gmail), skip the ones imported before and process the rest.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		importer, err := a.newImporter(cmd.Context())
		if err != nil {
			return err
		}
		if importer == nil {
			return errors.New("set INBOX_PROVIDER to imap or gmail: " + inbox.ErrNoProvider.Error())
		}

		label := cfg.InboxLabel
		if l, _ := cmd.Flags().GetString("label"); l != "" {
			label = l
		}
		max := cfg.InboxFetchMax
		if m, _ := cmd.Flags().GetInt("max"); m > 0 {
			max = m
		}

		res, err := importer.Import(cmd.Context(), label, max)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d, skipped %d, processed %d, failed %d\n",
			res.Fetched, res.Skipped, res.Processed, res.Failed)
		return nil
	},
}

func init() {
	importCmd.Flags().String("label", "", "mailbox or label to read (default INBOX_LABEL)")
	importCmd.Flags().Int("max", 0, "maximum messages to fetch (default INBOX_FETCH_MAX)")
	rootCmd.AddCommand(importCmd)
}
