package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vinit-codes/SmartPipeX/internal/sensors"
)

// Console status reports. These go to stdout for the operator watching
// the simulator, independent of the structured log stream.

// SuccessReport renders the multi-line report printed after the ingest
// API accepted a sample.
func SuccessReport(sample sensors.Sample, ack *Ack) string {
	var b strings.Builder
	b.WriteString("Data sent successfully:\n")
	fmt.Fprintf(&b, "   Input:  %.3f L/min\n", sample.InputFlow)
	fmt.Fprintf(&b, "   Output: %.3f L/min\n", sample.OutputFlow)

	p := ack.Data.Processed
	if p.LeakDetected {
		b.WriteString("   Leak:   yes\n")
		fmt.Fprintf(&b, "   Severity: %s (score: %g)\n", strings.ToUpper(p.Severity), p.SeverityScore)
	} else {
		b.WriteString("   Leak:   no\n")
	}
	fmt.Fprintf(&b, "   Total readings stored: %d", ack.Data.TotalReadings)
	return b.String()
}

// FailureReport renders the single-line diagnostic for a failed send,
// phrasing ingest rejections and network-level failures differently.
func FailureReport(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return fmt.Sprintf("Error: %d - %s", se.StatusCode, se.Body)
	}
	return fmt.Sprintf("Network error: %v", err)
}
