package main

import (
	"encoding/json"
	"fmt"
	"growdoctor/internal/model"
	"io"
	"strings"

	"github.com/fatih/color"
)

func render(w io.Writer, format string, resp *model.DiagnoseResponse, drift []string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	displayHuman(w, resp, drift)
	return nil
}

func displayHuman(w io.Writer, resp *model.DiagnoseResponse, drift []string) {
	d := resp.Result
	bold := color.New(color.Bold)
	cyan := color.New(color.FgCyan, color.Bold)

	fmt.Fprintln(w)
	severityColor(d.SeverityIndicator).Fprintf(w, "● %s\n", strings.ToUpper(string(d.SeverityIndicator)))
	bold.Fprintf(w, "%s", d.MainProblem)
	fmt.Fprintf(w, "  (%s, %d%%)\n", d.Category, d.Confidence)
	if d.Description != "" {
		fmt.Fprintf(w, "   %s\n", d.Description)
	}
	fmt.Fprintln(w)

	list(w, cyan, "Symptoms", d.VisibleSymptoms)
	list(w, cyan, "Possible causes", d.PossibleCauses)
	list(w, cyan, "Do now", d.ImmediateActions)
	list(w, cyan, "Prevention", d.Prevention)

	cyan.Fprintln(w, "Fertilizer")
	if d.FertilizingAllowed {
		fmt.Fprintf(w, "   %s %s\n", color.GreenString("allowed"), d.Fertilizer.Recommendation)
	} else {
		fmt.Fprintf(w, "   %s %s\n", color.RedString("not now"), d.Fertilizer.Reason)
		if d.Fertilizer.Advisory != "" {
			fmt.Fprintf(w, "   %s\n", d.Fertilizer.Advisory)
		}
	}
	fmt.Fprintln(w)

	if d.IsUncertain {
		color.New(color.FgYellow).Fprintf(w, "Uncertain: %s\n", d.UncertaintyReason)
	}
	if d.ExpertRecommended {
		color.New(color.FgRed).Fprintf(w, "Ask an expert: %s\n", d.ExpertReason)
	}
	if len(d.Alternatives) > 0 {
		cyan.Fprintln(w, "Alternatives")
		for _, alt := range d.Alternatives {
			fmt.Fprintf(w, "   - %s (%s, %d%%)\n", alt.Problem, alt.Category, alt.Confidence)
		}
	}
	fmt.Fprintf(w, "Image quality: %d\n", d.ImageQualityScore)
	if resp.AlreadyAnalyzed {
		fmt.Fprintln(w, resp.Legal.AlreadyAnalyzed)
	}
	for _, v := range drift {
		fmt.Fprintf(w, "%s\n", color.HiBlackString("schema: "+v))
	}

	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "%s\n", color.HiBlackString(resp.Legal.DisclaimerBody))
}

func list(w io.Writer, heading *color.Color, title string, items []string) {
	if len(items) == 0 {
		return
	}
	heading.Fprintln(w, title)
	for _, it := range items {
		fmt.Fprintf(w, "   - %s\n", it)
	}
}

func severityColor(s model.Severity) *color.Color {
	switch s {
	case model.SeverityRed:
		return color.New(color.FgRed, color.Bold)
	case model.SeverityYellow:
		return color.New(color.FgYellow, color.Bold)
	case model.SeverityGreen:
		return color.New(color.FgGreen, color.Bold)
	default:
		return color.New(color.FgWhite)
	}
}
