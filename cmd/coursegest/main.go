package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	var globals globalFlags

	rootCmd := &cobra.Command{
		Use:   "coursegest",
		Short: "Parse course documents into lessons and retrieval chunks",
		Long: `coursegest reads course documents, splits each into lessons and
sentence-aligned chunks, and hands the result to an index.

Environment variables (prefix COURSEGEST_):
  CHUNK_SIZE, CHUNK_OVERLAP, SENTENCE_SPLITTER, WORKER_COUNT, DOCS_DIR,
  MAX_DOCUMENT_BYTES, PDF_FALLBACK_PDFTOTEXT, INDEX_URL, INDEX_API_KEY, LOG_LEVEL`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&globals.configPath, "config", "", "YAML config file (overrides env)")
	rootCmd.PersistentFlags().StringVar(&globals.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(ingestCmd(&globals))
	rootCmd.AddCommand(parseCmd(&globals))
	rootCmd.AddCommand(outlineCmd(&globals))
	rootCmd.AddCommand(linkCmd(&globals))
	rootCmd.AddCommand(coursesCmd(&globals))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
