package coordinator

import (
	"context"
	"fmt"
	"strings"

	"github.com/pokewonder/pokewonder/internal/detect"
	"github.com/pokewonder/pokewonder/internal/models"
)

// sendSummary builds and sends the per-cycle scan summary: one line per
// target plus totals. Informational only, not an AlertEvent, so it
// bypasses per-entity throttling.
func (c *Coordinator) sendSummary(ctx context.Context, results []targetResult, stats *CycleResult) {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Scan summary — %s\n", c.now().UTC().Format("2006-01-02 15:04:05 UTC"))

	for _, res := range results {
		line := summaryLine(res)
		fmt.Fprintf(&b, "- %s: %s\n", res.target.Name, line)
	}

	fmt.Fprintf(&b, "\nTotals: %d items across %d targets", stats.ItemsSeen, stats.Targets)
	if stats.ItemsSeen == 0 {
		b.WriteString("\n⚠ No items seen on any target.")
	}

	if err := c.notifier.Send(ctx, b.String()); err != nil {
		stats.NotifyFailures++
		c.log.Warn().Err(err).Msg("summary send failed")
	}
}

func summaryLine(res targetResult) string {
	if res.fetchErr {
		return "ERROR"
	}
	status := detect.Status(res.ext.Queue, res.ext.Block)
	if status != models.TargetStatusOK {
		return string(status)
	}
	return fmt.Sprintf("%d items", len(res.ext.Items))
}
