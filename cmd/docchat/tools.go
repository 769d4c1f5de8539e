package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docchat/internal/chat"
	"github.com/dgallion1/docchat/internal/doccontext"
	"github.com/dgallion1/docchat/internal/extract"
	"github.com/dgallion1/docchat/internal/llm"
)

func chunksCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "chunks <file>",
		Short: "Extract a file and list its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			docs, err := extractFiles(cmd.Context(), newExtractor(cfg, logger), args)
			if err != nil {
				return err
			}
			chunks := doccontext.ExtractChunks(docs[0].Content)
			return printChunks(cmd.OutOrStdout(), chunks, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print chunks as JSON")
	return cmd
}

func printChunks(w io.Writer, chunks []doccontext.Chunk, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(chunks)
	}
	for i, c := range chunks {
		fmt.Fprintf(w, "%3d  %-50s %6d chars\n", i+1, c.Title, utf8.RuneCountInString(c.Content))
	}
	return nil
}

func contextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context <file>...",
		Short: "Print the document context a chat request would carry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			docs, err := extractFiles(cmd.Context(), newExtractor(cfg, logger), args)
			if err != nil {
				return err
			}
			if text, ok := doccontext.BuildContext(docs); ok {
				fmt.Fprintln(cmd.OutOrStdout(), text)
			}
			return nil
		},
	}
}

func askCmd() *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about local files and stream the answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			docs, err := extractFiles(ctx, newExtractor(cfg, logger), files)
			if err != nil {
				return err
			}
			req := chat.Request{Message: args[0]}
			if text, ok := doccontext.BuildContext(docs); ok {
				req.DocumentContext = &text
			}

			client := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
			defer client.Close()
			svc := chat.NewService(client, nil, llm.NewStats(time.Hour), cfg.LLMRetries, logger)

			out := cmd.OutOrStdout()
			if err := svc.Stream(ctx, req, out); err != nil {
				return err
			}
			fmt.Fprintln(out)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "document to ask about (repeatable)")
	return cmd
}

// extractFiles reads and extracts paths concurrently, failing on the first
// unreadable or unparseable file.
func extractFiles(ctx context.Context, ex *extract.Extractor, paths []string) ([]doccontext.Document, error) {
	files := make([]extract.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		files = append(files, extract.File{Name: filepath.Base(p), Data: data})
	}

	outcomes, err := ex.ExtractAll(ctx, files)
	if err != nil {
		return nil, err
	}
	docs := make([]doccontext.Document, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			return nil, fmt.Errorf("extract %s: %w", o.Filename, o.Err)
		}
		docs = append(docs, o.Result.Document())
	}
	return docs, nil
}
