package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"cvlens/internal/common"
	"cvlens/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [cv-file]",
	Short: "Run the full analysis pipeline on a CV document",
	Long: `Analyze a CV document (PDF, DOCX or plain text) in one shot.

The pipeline extracts a structured candidate profile, matches it against
the configured job catalogue, and generates actionable improvement
recommendations. The complete analysis is printed as json, text or
markdown.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if analyzeConfig.OutputFormat == "" {
			analyzeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(analyzeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	analyzeCmd.Flags().StringVar(&analyzeConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = analyzeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	path := args[0]

	analyzeOperation := func(ctx context.Context) (*types.AnalysisResult, error) {
		p, err := newPipeline(cfg, logger)
		if err != nil {
			return nil, err
		}
		defer p.Close(logger)

		if err := p.buildIndex(ctx, cfg.Catalogue.Path); err != nil {
			// Analysis still runs, matches degrade to an empty list
			logger.LogError(err, "Failed to build job index")
		}

		upload, err := p.Analyzer.Upload(path, filepath.Base(path))
		if err != nil {
			return nil, fmt.Errorf("failed to upload document: %w", err)
		}

		logger.Info("Starting CV analysis",
			"file_id", upload.FileID,
			"filename", upload.Filename,
			"output_format", analyzeConfig.OutputFormat)

		result, err := p.Analyzer.Analyze(ctx, upload.FileID)
		if err != nil {
			return nil, fmt.Errorf("failed to analyze CV: %w", err)
		}

		logger.Info("CV analysis completed successfully",
			"file_id", upload.FileID,
			"matches", len(result.JobMatches),
			"recommendations", len(result.Recommendations))
		return result, nil
	}

	return common.RunDocumentCommand(ctx, logger, analyzeConfig, path, analyzeOperation)
}
