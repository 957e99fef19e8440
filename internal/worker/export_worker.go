package worker

import (
	"context"
	"fmt"

	"bankdash/internal/events"
	"bankdash/internal/export"
	"bankdash/internal/log"
)

// ExportWorker mirrors transfer events into an external statement.
type ExportWorker struct {
	writer export.StatementWriter
	logger *log.Logger
}

func NewExportWorker(writer export.StatementWriter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ExportWorker{
		writer: writer,
		logger: logger.WithComponent("export-worker"),
	}
}

// HandleTransferCreated appends the transfer carried by the message to
// the statement. A returned error leaves the message queued for
// redelivery.
func (w *ExportWorker) HandleTransferCreated(ctx context.Context, msg *events.TransferCreatedMessage) error {
	tx := msg.Transaction()

	ref, err := w.writer.Append(ctx, tx)
	if err != nil {
		return fmt.Errorf("append transfer %s to statement: %w", tx.ID, err)
	}

	w.logger.InfoContext(ctx, "Transfer exported",
		log.FieldTransferID, tx.ID,
		log.FieldAccountID, tx.AccountID,
		"row_ref", ref)
	return nil
}
