package common

import (
	"context"

	"cvlens/internal/errors"
)

// DocumentOperationFunc is a generic signature for a pipeline operation that
// consumes an already-validated document and produces a printable result.
type DocumentOperationFunc[Output any] func(context.Context) (Output, error)

// RunDocumentCommand encapsulates the common logic for document-based CLI
// commands: input validation, the operation itself, and output handling.
func RunDocumentCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	path string,
	operation DocumentOperationFunc[Output],
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	if err := fileProcessor.ValidateDocumentFile(path); err != nil {
		return err
	}

	result, err := operation(ctx)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
