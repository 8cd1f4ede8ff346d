// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/llamagraph/llamagraph/internal/graph"
	"github.com/llamagraph/llamagraph/internal/query"
	"github.com/llamagraph/llamagraph/internal/ui"
)

var queryCmd = &cobra.Command{
	Use:   "query [query...]",
	Short: "Query a saved knowledge graph",
	Long: `Query loads a saved knowledge graph document and runs queries against
it. With arguments it executes one query and exits; without arguments it
opens an interactive session.

Supported queries: find <entity>, path from <a> to <b>, related <entity>,
count entities, count relations, count <type>, export <file>, help.`,
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	graphFile, _ := cmd.Flags().GetString("graph")

	g, err := graph.Load(graphFile)
	if err != nil {
		return err
	}

	engine := query.NewEngine(g)
	renderer := newRenderer(cmd)
	out := cmd.OutOrStdout()

	if len(args) == 0 {
		fmt.Fprintln(out, ui.Banner(version))
		session := &ui.Session{
			Engine:   engine,
			Renderer: renderer,
			In:       cmd.InOrStdin(),
			Out:      out,
		}
		return session.Run()
	}

	result := engine.Execute(strings.Join(args, " "))

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(out, renderer.Result(result))
	return nil
}

func init() {
	queryCmd.Flags().String("graph", "knowledge-graph.json", "path to the saved graph document")
	queryCmd.Flags().Bool("json", false, "output the raw result as JSON")

	rootCmd.AddCommand(queryCmd)
}
