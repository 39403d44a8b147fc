package reporting

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/dairy-dashboard/internal/domain/models"
	"github.com/mamadbah2/dairy-dashboard/internal/service/dashboard"
)

// ReportTitle heads the markdown report and the dashboard page.
const ReportTitle = "Ksheersagar Dairy Performance Dashboard"

// RenderMarkdown writes the full KPI report: one table per failing KPI
// followed by the action list.
func RenderMarkdown(a dashboard.Analysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", ReportTitle)
	fmt.Fprintf(&b, "_Generated %s from %d BMC rows and %d farmer rows._\n\n",
		a.GeneratedAt.Format("2006-01-02 15:04 MST"), a.CenterRows, a.FarmerRows)

	b.WriteString("## KPI Performance Analysis\n\n")
	if a.AllPassing() {
		b.WriteString(dashboard.MsgAllPassing + "\n\n")
	} else {
		b.WriteString("### Low Performing BMCs Identified\n\n")
		for _, name := range models.KPINames {
			set := a.Result[name]
			if len(set) == 0 {
				continue
			}
			fmt.Fprintf(&b, "#### %s KPI Concerns\n\n", name.Title())
			b.WriteString("| BMC_ID | BMC_Name | District | Reason |\n")
			b.WriteString("|---|---|---|---|\n")
			for _, f := range set {
				fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
					cell(f.Center.BMCID), cell(f.Center.BMCName), cell(f.Center.District), cell(f.Reason))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("## Actionable Insights & Targets for Field Team\n\n")
	if len(a.Actions) == 0 {
		b.WriteString(dashboard.MsgNoActions + "\n")
	} else {
		for _, item := range a.Actions {
			fmt.Fprintf(&b, "- %s\n", item)
		}
	}

	return b.String()
}

// DigestText is the short form sent to the field team.
func DigestText(a dashboard.Analysis) string {
	header := fmt.Sprintf("Field team actions for %s", a.GeneratedAt.Format(dateLayout))
	if len(a.Actions) == 0 {
		return header + "\n\n" + dashboard.MsgAllPassing
	}

	lines := make([]string, 0, len(a.Actions)+2)
	lines = append(lines, header, "")
	for _, item := range a.Actions {
		lines = append(lines, "- "+item)
	}
	return strings.Join(lines, "\n")
}

func cell(v string) string {
	return strings.ReplaceAll(v, "|", `\|`)
}
