package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docchat/internal/config"
	"github.com/dgallion1/docchat/internal/extract"
	"github.com/dgallion1/docchat/internal/parser"
)

var (
	logger     *slog.Logger
	configPath string
)

func main() {
	// Subcommands print results on stdout; logs go to stderr unless serving.
	logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))

	root := &cobra.Command{
		Use:           "docchat",
		Short:         "Chat with your documents",
		Long:          "docchat extracts text from uploaded documents and answers questions about them with an OpenAI-compatible model.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (environment variables take precedence)")

	root.AddCommand(serveCmd())
	root.AddCommand(chunksCmd())
	root.AddCommand(contextCmd())
	root.AddCommand(askCmd())

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
		if err != nil {
			return cfg, err
		}
	} else {
		cfg = config.Load()
	}
	return cfg, cfg.Validate()
}

func newExtractor(cfg config.Config, log *slog.Logger) *extract.Extractor {
	opts := parser.Options{
		PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
		CSVBatchRows:         cfg.CSVBatchRows,
	}
	return extract.New(opts, cfg.MaxUploadBytes, cfg.MaxConcurrentExtract, log)
}
