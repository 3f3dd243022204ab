package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mailtriage/internal/model"
	"mailtriage/internal/service"
)

var processCmd = &cobra.Command{
	Use:   "process [file]",
	Short: "Classify one email and append it to the table",
	Long: `Read an email (From:/Subject: headers followed by the body) from a file,
or from stdin when no file is given, classify it, draft a reply and add it to
the table.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in io.Reader = cmd.InOrStdin()
		if len(args) == 1 {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			in = f
		}
		text, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("reading email: %w", err)
		}

		a, err := buildApp(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer a.Close()

		entry, err := a.emailService.ProcessNewEmail(cmd.Context(), string(text))
		if errors.Is(err, service.ErrEngineNotReady) {
			return fmt.Errorf("%w: set GEMINI_API_KEY or AI_API_KEY", err)
		}
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entry)
		}
		printEntry(cmd.OutOrStdout(), entry)
		return nil
	},
}

func printEntry(w io.Writer, e *model.ProcessedEmail) {
	fmt.Fprintf(w, "%s %s (%s priority)\n", model.EmojiOf(e.Category), e.Category, e.Priority)
	fmt.Fprintf(w, "   ID:      %d\n", e.ID)
	fmt.Fprintf(w, "   From:    %s <%s>\n", e.Name, e.Email)
	fmt.Fprintf(w, "   Subject: %s\n", e.Subject)
	fmt.Fprintf(w, "\nDraft reply:\n%s\n", e.DraftReply)
}

func init() {
	processCmd.Flags().Bool("json", false, "print the stored row as JSON")
	rootCmd.AddCommand(processCmd)
}
