package prompts

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/scribe/pkg/pagination"
)

// System defines the public contract for prompt template operations.
// Every method takes the owning account explicitly and rejects callers
// whose request context does not grant access to it.
type System interface {
	Handler() *Handler

	ListTemplates(
		ctx context.Context,
		accountID uuid.UUID,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Template], error)

	CreateTemplate(ctx context.Context, accountID uuid.UUID, cmd CreateCommand) (*Template, error)
	GetTemplate(ctx context.Context, accountID, id uuid.UUID) (*Template, error)
	// GetByCategory returns the active template for category with its
	// current version.
	GetByCategory(ctx context.Context, accountID uuid.UUID, category string) (*Template, error)
	// ListActive returns every active template with its current version.
	ListActive(ctx context.Context, accountID uuid.UUID) ([]Template, error)

	CreateVersion(ctx context.Context, accountID, templateID uuid.UUID, cmd VersionCommand) (*Version, error)
	SetCurrentVersion(ctx context.Context, accountID, templateID, versionID uuid.UUID) (*Version, error)
	ListVersions(ctx context.Context, accountID, templateID uuid.UUID) ([]Version, error)

	Activate(ctx context.Context, accountID, id uuid.UUID) (*Template, error)
	Deactivate(ctx context.Context, accountID, id uuid.UUID) (*Template, error)
}
