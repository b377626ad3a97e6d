package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/liamcoop/spinecheck/assessment"
	"github.com/liamcoop/spinecheck/report"
	"github.com/liamcoop/spinecheck/scoring"
	"github.com/spf13/cobra"
)

type assessOptions struct {
	locations  []string
	symptoms   []string
	triggers   []string
	duration   string
	pain       int
	flags      []string
	explain    bool
	jsonOutput bool
}

func newAssessCommand(a *app) *cobra.Command {
	opts := &assessOptions{}

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Score a set of answers against the condition catalog",
		Long: `Assess ranks up to three likely conditions for the given answers.

Example:
  spinecheck assess -l lower_back,leg -s pain,numbness -d subacute
  spinecheck assess -l lower_back -s pain,stiffness -t lifting,bending -d acute --flag sudden_onset --explain
  spinecheck assess -l neck -s pain -d chronic_long --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssess(a, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringSliceVarP(&opts.locations, "location", "l", nil, "pain locations: "+strings.Join(locationChoices(), ", "))
	cmd.Flags().StringSliceVarP(&opts.symptoms, "symptom", "s", nil, "symptoms: "+strings.Join(symptomChoices(), ", "))
	cmd.Flags().StringSliceVarP(&opts.triggers, "trigger", "t", nil, "aggravating triggers (optional)")
	cmd.Flags().StringVarP(&opts.duration, "duration", "d", "", "symptom duration: acute, subacute, chronic_short, chronic_long")
	cmd.Flags().IntVarP(&opts.pain, "pain", "p", assessment.DefaultPainLevel, "pain level 0-10")
	cmd.Flags().StringSliceVarP(&opts.flags, "flag", "f", nil, "additional flags: sudden_onset, bladder_issue")
	cmd.Flags().BoolVar(&opts.explain, "explain", false, "show how every condition was scored")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "print the report as JSON")

	return cmd
}

func runAssess(a *app, opts *assessOptions, out io.Writer) error {
	resp := assessment.NewResponse()
	resp.Locations = append(resp.Locations, opts.locations...)
	resp.Symptoms = append(resp.Symptoms, opts.symptoms...)
	resp.Triggers = append(resp.Triggers, opts.triggers...)
	resp.Duration = assessment.Duration(opts.duration)
	resp.PainLevel = opts.pain
	resp.Additional = append(resp.Additional, opts.flags...)

	resp.Normalize()
	if err := resp.Validate(); err != nil {
		return err
	}

	engine, err := a.engine()
	if err != nil {
		return err
	}

	rep := report.Build(resp, scoring.Rank(engine.Score(resp)))

	var breakdown []scoring.Breakdown
	if opts.explain {
		breakdown = engine.Explain(resp)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			report.Report
			Breakdown []scoring.Breakdown `json:"breakdown,omitempty"`
		}{rep, breakdown})
	}

	printReport(out, rep)
	if opts.explain {
		printBreakdown(out, breakdown)
	}
	return nil
}

func printReport(out io.Writer, rep report.Report) {
	if rep.UrgentCare {
		fmt.Fprintf(out, "!! URGENT: %s\n\n", rep.Notice)
	}

	if len(rep.Results) == 0 {
		fmt.Fprintln(out, rep.Advisory)
	} else {
		fmt.Fprintln(out, rep.Headline)
		for _, r := range rep.Results {
			fmt.Fprintf(out, "\n%d. %s  [%s likelihood, %d%%]\n", r.Position, r.Name, r.Likelihood, r.Probability)
			fmt.Fprintf(out, "   %s\n", r.Description)
			fmt.Fprintln(out, "   Recommended treatment:")
			for _, t := range r.Treatments {
				fmt.Fprintf(out, "   - %s\n", t)
			}
		}
	}

	fmt.Fprintln(out, "\nYour answers:")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  Pain location:\t%s\n", rep.Summary.Locations)
	fmt.Fprintf(tw, "  Symptoms:\t%s\n", rep.Summary.Symptoms)
	fmt.Fprintf(tw, "  Triggers:\t%s\n", rep.Summary.Triggers)
	fmt.Fprintf(tw, "  Duration:\t%s\n", rep.Summary.Duration)
	fmt.Fprintf(tw, "  Pain level:\t%s\n", rep.Summary.PainLevel)
	tw.Flush()
}

func printBreakdown(out io.Writer, breakdown []scoring.Breakdown) {
	fmt.Fprintln(out, "\nScoring breakdown:")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  CONDITION\tSCORE\tMATCHES\tMATCHED TAGS\tADJUSTMENTS\tKEPT")
	for _, b := range breakdown {
		tags := append(append(append([]string{}, b.MatchedLocations...), b.MatchedSymptoms...), b.MatchedTriggers...)
		fmt.Fprintf(tw, "  %s\t%.1f\t%d\t%s\t%s\t%v\n",
			b.ConditionID, b.Score, b.Matches, orDash(tags), orDash(b.Applied), b.Retained)
	}
	tw.Flush()
}

func orDash(list []string) string {
	if len(list) == 0 {
		return "-"
	}
	return strings.Join(list, ",")
}
