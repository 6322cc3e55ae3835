package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/JaimeStill/scribe/internal/batch"
	"github.com/JaimeStill/scribe/internal/workflow"
)

func runCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "run <source-article-id>...",
		Short: "Run the generation pipeline for analyzed source articles",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]uuid.UUID, len(args))
			for i, a := range args {
				id, err := uuid.Parse(a)
				if err != nil {
					return fmt.Errorf("invalid source article id %q: %w", a, err)
				}
				ids[i] = id
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signalContext()
			defer stop()

			ctx, acct, err := accountContext(ctx, accountID)
			if err != nil {
				return err
			}

			var errs []error
			for _, id := range ids {
				result, err := s.domain.Generation.Run(ctx, acct, id)
				if err != nil {
					errs = append(errs, fmt.Errorf("source article %s: %w", id, err))
					continue
				}
				if err := emit(os.Stdout, result, func(w io.Writer) { printRun(w, result) }); err != nil {
					return err
				}
			}
			return errors.Join(errs...)
		},
	}

	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account id that owns the source articles")
	cmd.MarkFlagRequired("account")
	return cmd
}

func planCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the ordered steps a run would execute for an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signalContext()
			defer stop()

			ctx, acct, err := accountContext(ctx, accountID)
			if err != nil {
				return err
			}

			plan, err := s.domain.Generation.Plan(ctx, acct)
			if err != nil {
				return err
			}
			return emit(os.Stdout, plan, func(w io.Writer) { printPlan(w, plan) })
		},
	}

	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account id")
	cmd.MarkFlagRequired("account")
	return cmd
}

func batchCmd() *cobra.Command {
	var (
		accountID string
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Generate content for every analyzed source article of an account",
		Long: `Runs analyzed source articles in waves bounded by max_concurrent_runs.
With --all, every account holding analyzed articles is processed under an
operator context.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (accountID != "") {
				return errors.New("exactly one of --account or --all is required")
			}

			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()

			ctx, stop := signalContext()
			defer stop()

			if all {
				summaries, err := s.domain.Batch.RunAll(batch.OperatorContext(ctx))
				if err != nil {
					return err
				}
				return emit(os.Stdout, summaries, func(w io.Writer) {
					for i := range summaries {
						printSummary(w, &summaries[i])
					}
				})
			}

			ctx, acct, err := accountContext(ctx, accountID)
			if err != nil {
				return err
			}

			summary, err := s.domain.Batch.RunAccount(ctx, acct)
			if err != nil {
				return err
			}
			return emit(os.Stdout, summary, func(w io.Writer) { printSummary(w, summary) })
		},
	}

	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account id")
	cmd.Flags().BoolVar(&all, "all", false, "process every account with analyzed articles")
	return cmd
}

func printRun(w io.Writer, r *workflow.RunResult) {
	fmt.Fprintf(w, "blog %s  status=%s  words=%d  fallback=%v\n", r.BlogID, r.Status, r.WordCount, r.Fallback)
	for _, s := range r.Steps {
		state := "ok"
		switch {
		case s.Failed():
			state = s.Error.Kind + ": " + s.Error.Message
		case s.Degraded:
			state = "degraded"
		}
		fmt.Fprintf(w, "  %2d  %-20s  items=%d  %s\n", s.Index, s.Category, len(s.Items), state)
	}
}

func printPlan(w io.Writer, p *workflow.Plan) {
	fmt.Fprintf(w, "account %s  fallback=%v\n", p.AccountID, p.Fallback)
	for _, s := range p.Steps {
		fmt.Fprintf(w, "  %2d  %-20s  %s v%d  %s/%s\n", s.Index, s.Category, s.TemplateName, s.VersionNumber, s.MediaType, s.ParsingMethod)
	}
}

func printSummary(w io.Writer, s *batch.Summary) {
	fmt.Fprintf(w, "account %s  waves=%d  done=%d  partial=%d  failed=%d  skipped=%d\n",
		s.AccountID, s.Waves,
		s.Count(batch.OutcomeDone), s.Count(batch.OutcomePartial),
		s.Count(batch.OutcomeFailed), s.Count(batch.OutcomeSkipped),
	)
	for _, o := range s.Outcomes {
		line := fmt.Sprintf("  %s  %s", o.SourceArticleID, o.Outcome)
		if o.Error != "" {
			line += "  " + o.Error
		}
		fmt.Fprintln(w, line)
	}
}
