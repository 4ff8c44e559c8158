package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fsotosa-ops/meridian-bdr/internal/leads"
	"github.com/fsotosa-ops/meridian-bdr/internal/pipeline"
)

func formatScrapeReport(out io.Writer, r pipeline.ScrapeReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EXTRACTION")
	_, _ = fmt.Fprintf(w, "  candidates\t%d\n", r.Candidates)
	_, _ = fmt.Fprintf(w, "  saved\t%d\n", r.Saved)
	_, _ = fmt.Fprintf(w, "  duplicates\t%d\n", r.Duplicates)
	_, _ = fmt.Fprintf(w, "  skipped\t%d\n", r.Skipped)
	_, _ = fmt.Fprintf(w, "  failed\t%d\n", r.Failed)
	_, _ = fmt.Fprintf(w, "  over cap\t%d\n", r.Dropped)
	if r.ListingErr != nil {
		_, _ = fmt.Fprintf(w, "  listing stopped early\t%v\n", r.ListingErr)
	}
	_ = w.Flush()
}

func formatEvaluateReport(out io.Writer, r pipeline.EvaluateReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "EVALUATION")
	_, _ = fmt.Fprintf(w, "  pending\t%d\n", r.Pending)
	_, _ = fmt.Fprintf(w, "  evaluated\t%d\n", r.Evaluated)
	_, _ = fmt.Fprintf(w, "  qualified\t%d\n", r.Qualified)
	_, _ = fmt.Fprintf(w, "  under review\t%d\n", r.UnderReview)
	_, _ = fmt.Fprintf(w, "  discarded\t%d\n", r.Discarded)
	_, _ = fmt.Fprintf(w, "  left pending\t%d\n", r.Deferred)
	_ = w.Flush()

	if len(r.Digest.TopLeads) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SCORE\tNAME\tROLE\tCOMPANY")
	_, _ = fmt.Fprintln(w, "-----\t----\t----\t-------")
	for _, l := range r.Digest.TopLeads {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.Score, clip(l.Name, 30), clip(l.Role, 30), clip(l.Company, 30))
	}
	_ = w.Flush()
}

func formatStatusReport(out io.Writer, r pipeline.StatusReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STATUS\tLEADS")
	_, _ = fmt.Fprintln(w, "------\t-----")
	_, _ = fmt.Fprintf(w, "pending\t%d\n", r.Pending)
	_, _ = fmt.Fprintf(w, "qualified\t%d\n", r.Qualified)
	_, _ = fmt.Fprintf(w, "under_review\t%d\n", r.UnderReview)
	_, _ = fmt.Fprintf(w, "discarded\t%d\n", r.Discarded)
	_, _ = fmt.Fprintf(w, "external (CRM)\t%d\n", r.External)
	if r.Unset > 0 {
		_, _ = fmt.Fprintf(w, "no status\t%d\n", r.Unset)
	}
	_, _ = fmt.Fprintf(w, "total\t%d\n", r.Total)
	_ = w.Flush()

	last := r.LastRun
	if last == "" {
		last = "never"
	}
	_, _ = fmt.Fprintf(out, "\nLast run: %s\n", last)

	if len(r.TopLeads) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out, "\nTop leads:")
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, l := range r.TopLeads {
		_, _ = fmt.Fprintf(w, "  %d\t%s\t%s\t%s\n", *l.Score, clip(l.Name, 30), clip(l.Company, 30), l.Status)
	}
	_ = w.Flush()
}

// clip shortens s for a table cell, marking the cut with "...".
func clip(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return leads.Truncate(s, n-3) + "..."
}
