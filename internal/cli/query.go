package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"cvlens/internal/common"
	"cvlens/internal/types"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query [cv-file] [question]",
	Short: "Ask a free-form question about a CV document",
	Long: `Ask a natural-language question about a CV document.

The document is loaded and chunked, then an agentic reasoning loop answers
the question using read-only tools over the document: full text retrieval,
chunk inspection, keyword search and a formatting analysis. The answer,
its source chunks and the tools invoked are printed as json, text or
markdown.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if queryConfig.OutputFormat == "" {
			queryConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(queryConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runQuery,
}

var queryConfig common.CommandConfig

func init() {
	queryCmd.Flags().StringVarP(&queryConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	queryCmd.Flags().StringVar(&queryConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = queryCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	path, question := args[0], args[1]
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	queryOperation := func(ctx context.Context) (*types.QueryResponse, error) {
		p, err := newPipeline(cfg, logger)
		if err != nil {
			return nil, err
		}
		defer p.Close(logger)

		upload, err := p.Analyzer.Upload(path, filepath.Base(path))
		if err != nil {
			return nil, fmt.Errorf("failed to load document: %w", err)
		}

		// Chunk up front so the agent's chunk and search tools have material
		doc, err := p.Store.Get(upload.FileID)
		if err != nil {
			return nil, err
		}
		if err := p.Store.SetChunks(upload.FileID, p.Chunker.Split(doc.RawText)); err != nil {
			return nil, err
		}

		logger.Info("Starting agent query",
			"file_id", upload.FileID,
			"question_chars", len(question),
			"output_format", queryConfig.OutputFormat)

		response, _, err := p.Engine.Query(ctx, types.QueryRequest{
			FileID:   upload.FileID,
			Question: question,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to answer question: %w", err)
		}

		logger.Info("Agent query completed",
			"tool_calls", len(response.ToolCalls),
			"limit_reached", response.LimitReached)
		return response, nil
	}

	return common.RunDocumentCommand(ctx, logger, queryConfig, path, queryOperation)
}
