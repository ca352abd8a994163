package service

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"quiz-audit/internal/domain"
)

// WriteReport renderiza el reporte de texto plano de una auditoria.
func WriteReport(w io.Writer, report domain.AuditReport) error {
	bw := bufio.NewWriter(w)
	writeDistribution(bw, report.Distribution)
	writeReachability(bw, report.Reachability)
	writeSummary(bw, report)
	return bw.Flush()
}

// ExitCode es el unico contrato legible por maquina: 0 si pasa, 1 si no.
func ExitCode(report domain.AuditReport) int {
	if report.Verdict() {
		return 0
	}
	return 1
}

func writeDistribution(w *bufio.Writer, d domain.DistributionReport) {
	fmt.Fprintf(w, "=== FUZZ TEST: %d random playthroughs ===\n\n", d.Rounds)

	for _, t := range d.Ranked {
		bar := strings.Repeat("#", int(math.Round(t.Share)))
		fmt.Fprintf(w, "  %-25s%5.1f%%  %s\n", t.Name, t.Share, bar)
	}

	fmt.Fprintf(w, "\n  Unique characters matched: %d / %d\n", d.Unique, d.Total)
	if len(d.Missing) > 0 {
		names := make([]string, 0, len(d.Missing))
		for _, c := range d.Missing {
			names = append(names, c.Name)
		}
		fmt.Fprintf(w, "  MISSING from random fuzz: %s\n", strings.Join(names, ", "))
	}

	if d.Dominated {
		fmt.Fprintf(w, "\n  FAIL: %s dominates at %.1f%% (threshold: %g%%)\n", d.Top.Name, d.MaxShare, d.Threshold)
	} else {
		fmt.Fprintf(w, "\n  PASS: No character exceeds %g%% (max: %s at %.1f%%)\n", d.Threshold, d.Top.Name, d.MaxShare)
	}
}

func writeReachability(w *bufio.Writer, results []domain.ReachabilityResult) {
	fmt.Fprint(w, "\n=== REVERSE PATH TRACE: finding a path to every character ===\n\n")

	var unreachable []domain.ReachabilityResult
	for _, r := range results {
		status := "REACHABLE"
		via := ""
		if r.Reachable {
			via = "via [" + r.Witness.String() + "]"
		} else {
			status = "UNREACHABLE"
			unreachable = append(unreachable, r)
		}
		fmt.Fprintf(w, "  %-13s%-25s%s\n", status, r.Target.Name, via)
	}

	if len(unreachable) == 0 {
		return
	}
	fmt.Fprint(w, "\n=== UNREACHABLE CHARACTERS ===\n\n")
	for _, r := range unreachable {
		landed := "?"
		if r.LandedOn != nil {
			landed = r.LandedOn.Name
		}
		fmt.Fprintf(w, "  %s -> greedy optimization lands on %s instead\n", r.Target.Name, landed)
		fmt.Fprintf(w, "    Greedy path: [%s]\n", r.GreedyPath.String())
	}
}

func writeSummary(w *bufio.Writer, report domain.AuditReport) {
	unreachable := report.UnreachableCount()
	total := len(report.Reachability)
	result := "PASS"
	if !report.Verdict() {
		result = "FAIL"
	}

	fmt.Fprint(w, "\n=== SUMMARY ===\n")
	fmt.Fprintf(w, "  Reachable: %d / %d\n", total-unreachable, total)
	fmt.Fprintf(w, "  Unreachable: %d\n", unreachable)
	fmt.Fprintf(w, "  Seed: %d\n", report.Seed)
	fmt.Fprintf(w, "  Result: %s\n", result)
}
