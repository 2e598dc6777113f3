package ports

import (
	"context"

	"docverify/internal/evidence/registry/models"
)

// Registry is the enrichment collaborator. Errors wrap sentinel.ErrNotFound
// when the identifier is unknown upstream and sentinel.ErrUnavailable when
// the lookup could not be completed.
type Registry interface {
	Company(ctx context.Context, kind models.CompanyKind, number string) (*models.CompanyRecord, error)
	VAT(ctx context.Context, number string) (*models.VATCheck, error)
}
