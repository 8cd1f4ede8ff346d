// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/llamagraph/llamagraph/internal/graph"
	"github.com/llamagraph/llamagraph/internal/server"
	"github.com/llamagraph/llamagraph/pkg/types"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the llamagraph REST API server",
	Long: `Serve exposes the knowledge graph over HTTP: POST /process ingests
text, POST /query executes queries, GET /graph returns the graph
document. With --graph it preloads a saved document; otherwise the
server starts with an empty graph.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")
	graphFile, _ := cmd.Flags().GetString("graph")

	g := graph.New()
	if graphFile != "" {
		loaded, err := graph.Load(graphFile)
		if err != nil {
			return err
		}
		g = loaded
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded graph from %s (%d entities, %d relations)\n",
			graphFile, g.NumEntities(), g.NumRelations())
	}

	pipeline, cleanup, err := buildPipeline(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(types.ServerConfig{Host: host, Port: port}, pipeline, g)
	fmt.Fprintf(cmd.OutOrStdout(), "Starting llamagraph API server on http://%s:%d\n", host, port)
	return srv.Start(ctx)
}

func init() {
	serveCmd.Flags().String("host", "0.0.0.0", "host to bind the server to")
	serveCmd.Flags().IntP("port", "p", 8000, "port to run the server on")
	serveCmd.Flags().String("graph", "", "saved graph document to preload")
	serveCmd.Flags().IntP("workers", "n", 4, "number of extraction workers")
	serveCmd.Flags().Bool("ner", false, "use the ONNX NER backend for entity extraction")
	serveCmd.Flags().String("model-dir", "", "directory for downloaded NER models (default ./models)")
	serveCmd.Flags().String("cache-dir", "", "extraction cache directory (default ~/.llamagraph/cache)")
	serveCmd.Flags().Bool("no-cache", false, "disable the extraction cache")
	serveCmd.Flags().Float64("min-confidence", 0, "drop relations scored below this confidence")

	rootCmd.AddCommand(serveCmd)
}
