package export

import (
	"context"

	"bankdash/internal/core"
)

// StatementWriter appends a completed or pending transfer to an
// external statement, returning a reference to the written row.
type StatementWriter interface {
	Append(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}
