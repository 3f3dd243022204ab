package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mailtriage/internal/export"
	"mailtriage/internal/service"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the email table as CSV or XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		out, _ := cmd.Flags().GetString("out")
		format, _ := cmd.Flags().GetString("format")
		if format == "" {
			format = strings.TrimPrefix(filepath.Ext(out), ".")
		}

		rows, err := a.emailService.ListEmails(cmd.Context(), service.Filter{})
		if err != nil {
			return err
		}

		var w io.Writer = cmd.OutOrStdout()
		if out != "" && out != "-" {
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		switch strings.ToLower(format) {
		case "", "csv":
			err = export.WriteCSV(w, rows)
		case "xlsx":
			err = export.WriteXLSX(w, rows)
		default:
			return fmt.Errorf("unknown export format %q (csv or xlsx)", format)
		}
		if err != nil {
			return err
		}
		if out != "" && out != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d emails to %s\n", len(rows), out)
		}
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Replace the table with its backup copy",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.emailService.RestoreBackup(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored %d emails from backup\n", n)
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every row of the table",
	Long:  `Delete every row. Pass --confirm "DELETE ALL" to proceed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetString("confirm")
		if confirm != service.ClearConfirmation {
			return service.ErrConfirmationRequired
		}

		a, err := buildApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.emailService.ClearAll(cmd.Context(), confirm); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "All email data cleared")
		return nil
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "output file (stdout when empty)")
	exportCmd.Flags().String("format", "", "csv or xlsx (default from --out extension, else csv)")
	clearCmd.Flags().String("confirm", "", `must be "DELETE ALL"`)

	rootCmd.AddCommand(exportCmd, restoreCmd, clearCmd)
}
