package prompts

import (
	"net/url"
	"strconv"

	"github.com/JaimeStill/scribe/pkg/query"
	"github.com/JaimeStill/scribe/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "prompt_templates", "t").
	Project("id", "ID").
	Project("account_id", "AccountID").
	Project("name", "Name").
	Project("category", "Category").
	Project("description", "Description").
	Project("is_active", "IsActive").
	Project("created_at", "CreatedAt")

var defaultSort = query.SortField{
	Field: "Name",
}

const templateColumns = `t.id, t.account_id, t.name, t.category, t.description, t.is_active, t.created_at`

const versionColumns = `v.id, v.template_id, v.version_number, v.prompt_body, v.system_message,
	v.parameters, v.created_by, v.created_at, v.notes, v.is_current`

// resolvedSelect joins each template to its current version.
const resolvedSelect = `SELECT ` + templateColumns + `, ` + versionColumns + `
	FROM public.prompt_templates t
	JOIN public.prompt_versions v ON v.template_id = t.id AND v.is_current`

// Filters contains optional filtering criteria for template queries.
// Nil fields are ignored. Category and IsActive use exact matching.
// Name uses case-insensitive contains matching.
type Filters struct {
	Category *string `json:"category,omitempty"`
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Category", f.Category).
		WhereContains("Name", f.Name).
		WhereEquals("IsActive", f.IsActive)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("category"); c != "" {
		f.Category = &c
	}

	if n := values.Get("name"); n != "" {
		f.Name = &n
	}

	if a := values.Get("active"); a != "" {
		if v, err := strconv.ParseBool(a); err == nil {
			f.IsActive = &v
		}
	}

	return f
}

func templateFields(t *Template) []any {
	return []any{&t.ID, &t.AccountID, &t.Name, &t.Category, &t.Description, &t.IsActive, &t.CreatedAt}
}

func versionFields(v *Version, params *repository.JSON[map[string]any]) []any {
	return []any{
		&v.ID, &v.TemplateID, &v.VersionNumber, &v.PromptBody, &v.SystemMessage,
		params, &v.CreatedBy, &v.CreatedAt, &v.Notes, &v.IsCurrent,
	}
}

func scanTemplate(s repository.Scanner) (Template, error) {
	var t Template
	err := s.Scan(templateFields(&t)...)
	return t, err
}

func scanVersion(s repository.Scanner) (Version, error) {
	var v Version
	var params repository.JSON[map[string]any]
	err := s.Scan(versionFields(&v, &params)...)
	v.Parameters = params.V
	return v, err
}

func scanResolved(s repository.Scanner) (Template, error) {
	var t Template
	var v Version
	var params repository.JSON[map[string]any]
	dest := append(templateFields(&t), versionFields(&v, &params)...)
	if err := s.Scan(dest...); err != nil {
		return Template{}, err
	}
	v.Parameters = params.V
	t.CurrentVersion = &v
	return t, nil
}
