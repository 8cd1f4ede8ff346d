// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/llamagraph/llamagraph/internal/cache"
	"github.com/llamagraph/llamagraph/internal/extract"
	"github.com/llamagraph/llamagraph/internal/fetch"
	"github.com/llamagraph/llamagraph/internal/graph"
	"github.com/llamagraph/llamagraph/internal/query"
	"github.com/llamagraph/llamagraph/internal/ui"
	"github.com/llamagraph/llamagraph/pkg/types"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process text into a knowledge graph",
	Long: `Process extracts entities and relations from input text, builds the
knowledge graph, and optionally saves it and opens an interactive query
session. Input comes from --input-text, --input-file, or --input-url.`,
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	inputText, _ := cmd.Flags().GetString("input-text")
	inputFile, _ := cmd.Flags().GetString("input-file")
	inputURL, _ := cmd.Flags().GetString("input-url")
	outputFile, _ := cmd.Flags().GetString("output")
	interactive, _ := cmd.Flags().GetBool("interactive")

	text, err := resolveInput(cmd.Context(), inputText, inputFile, inputURL)
	if err != nil {
		return err
	}

	renderer := newRenderer(cmd)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, ui.Banner(version))

	pipeline, cleanup, err := buildPipeline(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Fprintln(out, ui.HintStyle.Render("Extracting entities and relations..."))
	result, err := pipeline.Run(cmd.Context(), text)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ui.SuccessStyle.Render(fmt.Sprintf(
		"Found %d entities and %d relations!", len(result.Entities), len(result.Relations))))

	g := buildGraph(result)

	if outputFile != "" {
		if err := g.Save(outputFile); err != nil {
			return err
		}
		fmt.Fprintln(out, ui.SuccessStyle.Render("Knowledge graph saved to "+outputFile))
	}

	if interactive {
		session := &ui.Session{
			Engine:   query.NewEngine(g),
			Renderer: renderer,
			In:       cmd.InOrStdin(),
			Out:      out,
		}
		return session.Run()
	}

	fmt.Fprintln(out, renderer.Summary(g.Summary()))
	return nil
}

// buildGraph merges extraction output into a fresh store. Extraction may
// run fan-out internally; this merge is the single writer.
func buildGraph(result extract.Result) *graph.Graph {
	g := graph.New()
	for _, e := range result.Entities {
		g.AddEntity(e)
	}
	for _, r := range result.Relations {
		// Relations referencing endpoints the entity pass never produced
		// are extractor noise; skip them.
		_, _ = g.AddRelation(r)
	}
	return g
}

func resolveInput(ctx context.Context, inputText, inputFile, inputURL string) (string, error) {
	set := 0
	for _, s := range []string{inputText, inputFile, inputURL} {
		if s != "" {
			set++
		}
	}
	switch {
	case set > 1:
		return "", fmt.Errorf("--input-text, --input-file, and --input-url are mutually exclusive")
	case inputText != "":
		return inputText, nil
	case inputFile != "":
		data, err := os.ReadFile(inputFile)
		if err != nil {
			return "", fmt.Errorf("reading input file: %w", err)
		}
		return string(data), nil
	case inputURL != "":
		return fetch.Text(ctx, nil, inputURL)
	default:
		return "", fmt.Errorf("one of --input-text, --input-file, or --input-url is required")
	}
}

// buildPipeline assembles the extraction pipeline from flags and config.
// The returned cleanup closes the cache and NER session.
func buildPipeline(cmd *cobra.Command) (*extract.Pipeline, func(), error) {
	workers, _ := cmd.Flags().GetInt("workers")
	useNER, _ := cmd.Flags().GetBool("ner")
	modelDir, _ := cmd.Flags().GetString("model-dir")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	cacheDir, _ := cmd.Flags().GetString("cache-dir")
	minConfidence, _ := cmd.Flags().GetFloat64("min-confidence")

	if cacheDir == "" {
		cacheDir = viper.GetString("cache.dir")
	}
	if cacheDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cacheDir = filepath.Join(home, ".llamagraph", "cache")
		}
	}

	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	pipeline := &extract.Pipeline{
		Workers:   workers,
		Relations: extract.PatternRelationTagger{MinConfidence: minConfidence},
	}

	if useNER {
		tagger, err := extract.NewNERTagger(modelDir)
		if err != nil {
			return nil, cleanup, fmt.Errorf("initializing NER backend: %w", err)
		}
		closers = append(closers, func() { tagger.Close() })
		pipeline.Entities = tagger
	} else {
		pipeline.Entities = extract.PatternEntityTagger{}
	}

	if !noCache && cacheDir != "" {
		c, err := cache.Open(types.CacheConfig{
			Dir:        cacheDir,
			MaxEntries: viper.GetInt("cache.max_entries"),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: extraction cache disabled: %v\n", err)
		} else {
			closers = append(closers, func() { c.Close() })
			pipeline.Cache = c
		}
	}

	return pipeline, cleanup, nil
}

func newRenderer(cmd *cobra.Command) ui.Renderer {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return ui.Renderer{Plain: noColor || !ui.ShouldUseColor()}
}

func init() {
	processCmd.Flags().StringP("input-text", "t", "", "input text for processing")
	processCmd.Flags().StringP("input-file", "f", "", "input file for processing")
	processCmd.Flags().StringP("input-url", "u", "", "URL of a text document to process")
	processCmd.Flags().StringP("output", "o", "", "output file for the knowledge graph document")
	processCmd.Flags().IntP("workers", "n", 4, "number of extraction workers")
	processCmd.Flags().Bool("ner", false, "use the ONNX NER backend for entity extraction")
	processCmd.Flags().String("model-dir", "", "directory for downloaded NER models (default ./models)")
	processCmd.Flags().String("cache-dir", "", "extraction cache directory (default ~/.llamagraph/cache)")
	processCmd.Flags().Bool("no-cache", false, "disable the extraction cache")
	processCmd.Flags().Float64("min-confidence", 0, "drop relations scored below this confidence")
	processCmd.Flags().Bool("interactive", true, "open an interactive query session after processing")

	rootCmd.AddCommand(processCmd)
}
