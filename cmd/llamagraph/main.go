// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the llamagraph CLI: extract
// entities and relations from text, build a queryable knowledge graph,
// and explore it interactively, via one-shot queries, or over REST.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the llamagraph CLI.
var rootCmd = &cobra.Command{
	Use:   "llamagraph",
	Short: "A llama-themed knowledge graph construction tool from text",
	Long: `llamagraph extracts named entities and relationships from natural-language
text and assembles them into a queryable knowledge graph.

Use 'process' to ingest text and build a graph, 'query' to explore a saved
graph, and 'serve' to expose the graph over a REST API. Graphs persist as
JSON documents and export to JSON, YAML, or GraphViz DOT.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./llamagraph.yaml or ~/.config/llamagraph/config.yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable ANSI styling")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("llamagraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "llamagraph"))
		}
	}

	viper.SetEnvPrefix("LLAMAGRAPH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
