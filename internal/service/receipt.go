package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/valuation-service/internal/domain"
)

// ReceiptIssuer is the load-bearing collaborator that produces receipt
// numbers. A failed issue aborts createReceipt entirely: no receipt, no
// status change.
type ReceiptIssuer interface {
	Issue(ctx context.Context, c *domain.Case) (string, error)
}

type uuidReceiptIssuer struct{}

// NewReceiptIssuer returns the default issuer.
func NewReceiptIssuer() ReceiptIssuer {
	return uuidReceiptIssuer{}
}

func (uuidReceiptIssuer) Issue(_ context.Context, _ *domain.Case) (string, error) {
	return "RCP-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10]), nil
}
