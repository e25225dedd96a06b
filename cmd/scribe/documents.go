package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/scribe/internal/presentation/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var documentsCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"docs"},
	Short:   "Inspect archived embed documents",
}

var documentsListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List archived document IDs, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		be, err := openArchive(cmd.Context(), cmd, cfg)
		if err != nil {
			return err
		}
		defer be.close()

		ids, err := be.store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list documents: %w", err)
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No archived documents.")
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var documentsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print an archived document",
	Long: `Prints one archived document. On a terminal the embed is rendered as
markdown; otherwise the raw markdown (or JSON with --json) is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		be, err := openArchive(cmd.Context(), cmd, cfg)
		if err != nil {
			return err
		}
		defer be.close()

		rec, err := be.store.Load(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		}

		md := tui.EmbedMarkdown(rec.Embed)
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprint(out, md)
			return nil
		}
		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || width <= 0 {
			width = 80
		}
		render, err := tui.NewRenderer(width)
		if err != nil {
			return err
		}
		styled, err := render(md)
		if err != nil {
			return err
		}
		fmt.Fprint(out, styled)
		return nil
	},
}

func init() {
	documentsShowCmd.Flags().Bool("json", false, "Print the stored record as JSON")
	documentsCmd.AddCommand(documentsListCmd, documentsShowCmd)
	rootCmd.AddCommand(documentsCmd)
}
