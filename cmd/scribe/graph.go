package main

import (
	"fmt"

	"github.com/aretw0/scribe/internal/presentation/graph"
	"github.com/aretw0/scribe/pkg/session"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Export the session state machine as a Mermaid diagram",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(session.Transitions(), nil))
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
}
