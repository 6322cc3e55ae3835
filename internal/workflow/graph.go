package workflow

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	gaoconfig "github.com/tailored-agentic-units/orchestrate/config"
	"github.com/tailored-agentic-units/orchestrate/state"

	"github.com/JaimeStill/scribe/internal/variables"
)

// State bag keys carried between graph nodes.
const (
	KeyVars      = "vars"
	KeyResult    = "result"
	KeyCancelled = "cancelled"
)

const (
	nodeSeed     = "seed"
	nodeFinalize = "finalize"
)

// buildGraph lays the plan out as a linear graph:
// seed → step-1 → ... → step-n → finalize.
// ctx is the caller's context; the graph itself runs under a context
// without cancellation so cancelled runs still reach finalize.
func buildGraph(ctx context.Context, r *run, plan *Plan, sourceID uuid.UUID) (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("scribe-generate")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode(nodeSeed, seedNode()); err != nil {
		return nil, err
	}
	if err := graph.AddNode(nodeFinalize, finalizeNode(r, sourceID)); err != nil {
		return nil, err
	}

	prev := nodeSeed
	for _, s := range plan.Steps {
		name := stepNodeName(s)
		if err := graph.AddNode(name, stepNode(ctx, r, s)); err != nil {
			return nil, err
		}
		if err := graph.AddEdge(prev, name, nil); err != nil {
			return nil, err
		}
		prev = name
	}

	if err := graph.AddEdge(prev, nodeFinalize, nil); err != nil {
		return nil, err
	}
	if err := graph.SetEntryPoint(nodeSeed); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint(nodeFinalize); err != nil {
		return nil, err
	}

	return graph, nil
}

func stepNodeName(s Step) string {
	return fmt.Sprintf("step-%d-%s", s.Index, s.Category)
}

// seedNode verifies the initial bag before any step runs.
func seedNode() state.StateNode {
	return state.NewFunctionNode(func(_ context.Context, s state.State) (state.State, error) {
		if _, _, err := extractRunState(s); err != nil {
			return s, fmt.Errorf("seed: %w", err)
		}
		return s.Set(KeyCancelled, false), nil
	})
}

// stepNode runs one plan step against the accumulated context. Once ctx
// is done the step and every later one are recorded as cancelled without
// calling a provider.
func stepNode(ctx context.Context, r *run, st Step) state.StateNode {
	return state.NewFunctionNode(func(_ context.Context, s state.State) (state.State, error) {
		vars, result, err := extractRunState(s)
		if err != nil {
			return s, fmt.Errorf("step %d: %w", st.Index, err)
		}

		if cancelled(s) || ctx.Err() != nil {
			if !cancelled(s) {
				r.logger.Warn("run cancelled", "completed_steps", len(result.Steps))
			}
			r.skip(st)
			return s.Set(KeyCancelled, true), nil
		}

		r.vars = maps.Clone(vars)
		sr := r.step(ctx, st)
		result.Steps = append(result.Steps, sr)

		s = s.Set(KeyVars, r.vars)
		if sr.Error != nil && sr.Error.Kind == KindCancelled {
			r.logger.Warn("run cancelled", "completed_steps", len(result.Steps)-1)
			s = s.Set(KeyCancelled, true)
		}
		return s, nil
	})
}

// finalizeNode writes the blog body, transitions the source and settles
// the run status.
func finalizeNode(r *run, sourceID uuid.UUID) state.StateNode {
	return state.NewFunctionNode(func(_ context.Context, s state.State) (state.State, error) {
		_, result, err := extractRunState(s)
		if err != nil {
			return s, fmt.Errorf("finalize: %w", err)
		}

		wasCancelled := cancelled(s)
		r.finalize(sourceID, wasCancelled)

		if wasCancelled || len(result.Failures()) > 0 {
			result.Status = StatusPartialComplete
		}
		result.CompletedAt = time.Now()
		return s, nil
	})
}

func extractRunState(s state.State) (variables.Context, *RunResult, error) {
	varsVal, ok := s.Get(KeyVars)
	if !ok {
		return nil, nil, fmt.Errorf("missing %s in state", KeyVars)
	}
	vars, ok := varsVal.(variables.Context)
	if !ok {
		return nil, nil, fmt.Errorf("%s is not variables.Context", KeyVars)
	}

	resultVal, ok := s.Get(KeyResult)
	if !ok {
		return nil, nil, fmt.Errorf("missing %s in state", KeyResult)
	}
	result, ok := resultVal.(*RunResult)
	if !ok {
		return nil, nil, fmt.Errorf("%s is not *RunResult", KeyResult)
	}

	return vars, result, nil
}

func cancelled(s state.State) bool {
	v, ok := s.Get(KeyCancelled)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}
