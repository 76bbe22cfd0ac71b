package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/report"
)

// FormatZoneReport renders per-zone figures and a totals row.
func FormatZoneReport(s report.Summary) string {
	if len(s.Zones) == 0 {
		return Dim("No zone figures reported.") + "\n"
	}
	headers := []string{"ZONE", "CLIENTS", "FINISHED", "TOTAL", "PAID", "REMAINING", "DONE"}
	rows := make([][]string, 0, len(s.Zones)+1)
	for _, z := range s.Zones {
		rows = append(rows, []string{
			Bold(domain.CoalesceStr(z.ZoneName, z.ZoneID)),
			fmt.Sprintf("%d", z.ClientCount),
			fmt.Sprintf("%d", z.FinishedCount),
			Money(z.TotalAmount),
			Money(z.TotalPaid),
			Money(z.Remaining),
			RenderCompletion(z.FinishedCount, z.ClientCount, 10),
		})
	}
	t := s.Totals
	rows = append(rows, []string{
		StyleHeader.Render("Total"),
		fmt.Sprintf("%d", t.ClientCount),
		fmt.Sprintf("%d", t.FinishedCount),
		Money(t.TotalAmount),
		Money(t.TotalPaid),
		Money(t.Remaining),
		RenderCompletion(t.FinishedCount, t.ClientCount, 10),
	})

	var b strings.Builder
	b.WriteString(RenderTable(headers, rows))
	if over := s.Overpaid(); len(over) > 0 {
		names := make([]string, 0, len(over))
		for _, z := range over {
			names = append(names, domain.CoalesceStr(z.ZoneName, z.ZoneID))
		}
		b.WriteString("\n" + StyleYellow.Render("Overpaid: "+strings.Join(names, ", ")) + "\n")
	}
	return b.String()
}

func FormatSystemSummary(s *domain.SystemSummary) string {
	content := fmt.Sprintf("%s  %d\n%s  %d\n%s  %s",
		Dim("Users  "), s.Users,
		Dim("Clients"), s.Clients,
		Dim("Total  "), Money(s.Total),
	)
	return RenderBox("System summary", content)
}
