package workflow

import (
	"cmp"
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/JaimeStill/scribe/internal/contenttypes"
	"github.com/JaimeStill/scribe/internal/parsing"
	"github.com/JaimeStill/scribe/internal/prompts"
	"github.com/JaimeStill/scribe/internal/variables"
)

//go:embed fallback.yaml
var fallbackYAML []byte

type fallbackFile struct {
	ContentTypes []struct {
		Category       string `yaml:"category"`
		MediaType      string `yaml:"media_type"`
		ParsingMethod  string `yaml:"parsing_method"`
		ExecutionOrder int    `yaml:"execution_order"`
	} `yaml:"content_types"`
}

// FallbackConfigs returns the built-in content types.
func FallbackConfigs() ([]contenttypes.Config, error) {
	var f fallbackFile
	if err := yaml.Unmarshal(fallbackYAML, &f); err != nil {
		return nil, fmt.Errorf("decode fallback workflow: %w", err)
	}

	configs := make([]contenttypes.Config, 0, len(f.ContentTypes))
	for _, ct := range f.ContentTypes {
		mt, err := contenttypes.ParseMediaType(ct.MediaType)
		if err != nil {
			return nil, err
		}
		method, err := parsing.ParseMethod(ct.ParsingMethod)
		if err != nil {
			return nil, err
		}
		configs = append(configs, contenttypes.Config{
			Category:       ct.Category,
			MediaType:      mt,
			ParsingMethod:  method,
			StorageSchema:  map[string]any{},
			TemplateRef:    ct.Category,
			UIConfig:       map[string]any{},
			IsActive:       true,
			ExecutionOrder: ct.ExecutionOrder,
		})
	}
	return configs, nil
}

// BuildPlan produces the ordered steps for accountID. Steps follow
// ascending execution order with ties broken by template name. When the
// account's content types yield no steps the built-in content types are
// tried. A step that references the output of itself or a later step
// fails planning with ErrWorkflowCycle.
func BuildPlan(ctx context.Context, rt *Runtime, accountID uuid.UUID) (*Plan, error) {
	logger := rt.Logger.With("workflow", "plan", "account_id", accountID)

	templates, err := rt.Templates.ListActive(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list active templates: %w", err)
	}

	configs, err := rt.Configs.GetActive(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list content types: %w", err)
	}

	plan := &Plan{AccountID: accountID}
	plan.Steps = planSteps(configs, templates, logger)

	if len(plan.Steps) == 0 {
		fallback, err := FallbackConfigs()
		if err != nil {
			return nil, err
		}
		plan.Steps = planSteps(fallback, templates, logger)
		plan.Fallback = true
	}

	if err := checkReferences(plan.Steps); err != nil {
		return nil, err
	}

	logger.Info("plan built", "steps", len(plan.Steps), "fallback", plan.Fallback)
	return plan, nil
}

func planSteps(configs []contenttypes.Config, templates []prompts.Template, logger *slog.Logger) []Step {
	byCategory := make(map[string]prompts.Template, len(templates))
	for _, t := range templates {
		if t.CurrentVersion != nil {
			byCategory[t.Category] = t
		}
	}

	steps := make([]Step, 0, len(configs))
	for _, c := range configs {
		ref := c.TemplateRef
		if ref == "" {
			ref = c.Category
		}

		t, ok := byCategory[ref]
		if !ok {
			logger.Warn("content type skipped, no active template", "category", c.Category, "template_ref", ref)
			continue
		}

		v := t.CurrentVersion
		steps = append(steps, Step{
			Category:       c.Category,
			TemplateID:     t.ID,
			TemplateName:   t.Name,
			VersionID:      v.ID,
			VersionNumber:  v.VersionNumber,
			SystemMessage:  v.SystemMessage,
			PromptBody:     v.PromptBody,
			Parameters:     v.Parameters,
			MediaType:      c.MediaType,
			ParsingMethod:  c.ParsingMethod,
			StorageSchema:  c.StorageSchema,
			UIConfig:       c.UIConfig,
			ExecutionOrder: c.ExecutionOrder,
		})
	}

	slices.SortStableFunc(steps, func(a, b Step) int {
		return cmp.Or(
			cmp.Compare(a.ExecutionOrder, b.ExecutionOrder),
			cmp.Compare(a.TemplateName, b.TemplateName),
		)
	})

	for i := range steps {
		steps[i].Index = i + 1
	}
	return steps
}

// checkReferences verifies every step-output reference points at an
// earlier step. References to categories absent from the plan resolve to
// the empty string at run time and are allowed.
func checkReferences(steps []Step) error {
	position := make(map[string]int, len(steps))
	for _, s := range steps {
		position[s.Category] = s.Index
	}

	for _, s := range steps {
		for _, ref := range variables.References(s.PromptBody) {
			target := ref.Step
			if ref.Category != "" {
				idx, ok := position[ref.Category]
				if !ok {
					continue
				}
				target = idx
			}
			if target <= 0 {
				continue
			}
			if target >= s.Index {
				return fmt.Errorf("%w: step %d (%s) references %s produced by step %d",
					ErrWorkflowCycle, s.Index, s.Category, ref.Name, target)
			}
		}
	}
	return nil
}
