// ABOUTME: Terminal styles and shared printers for CLI output
// ABOUTME: Renders session summaries and visit tables with lipgloss and tabwriter
package cli

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/workly/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Width(22)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	endedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	moneyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)

func printField(w io.Writer, label string, value interface{}) {
	_, _ = fmt.Fprintf(w, "%s %v\n", labelStyle.Render(label+":"), value)
}

func money(amount float64) string {
	return moneyStyle.Render(fmt.Sprintf("$%.2f", amount))
}

func stateLabel(active bool) string {
	if active {
		return activeStyle.Render("active")
	}
	return endedStyle.Render("ended")
}

// printSession renders the summary block for one session. elapsed is shown
// for running sessions in place of the stored duration.
func printSession(w io.Writer, s models.Session, elapsed string) {
	b := s.Base()
	_, _ = fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s session %s", s.Kind, b.SessionID)))
	printField(w, "Salesperson", b.Salesperson)
	printField(w, "State", stateLabel(b.Active))
	printField(w, "Started", b.StartTime.Local().Format("2006-01-02 15:04:05"))
	switch {
	case b.Active:
		printField(w, "Elapsed", elapsed)
	case b.Duration != nil:
		printField(w, "Duration", *b.Duration)
	}
	printField(w, "Miles walked", fmt.Sprintf("%.2f", b.MilesWalked))
	printField(w, "GPS points", len(b.Polyline))

	switch {
	case s.Visit != nil:
		printField(w, "Visits", s.Visit.TotalVisits)
		printField(w, "Opportunities", s.Visit.OpportunityCount)
		printField(w, "Opportunity total", money(s.Visit.OpportunityTotal))
		printField(w, "Est. commission", money(s.Visit.EstimatedCommission))
		if len(s.Visit.SalesOutcomes) > 0 {
			statuses := make([]string, 0, len(s.Visit.SalesOutcomes))
			for status := range s.Visit.SalesOutcomes {
				statuses = append(statuses, status)
			}
			sort.Strings(statuses)
			for _, status := range statuses {
				printField(w, "  "+status, s.Visit.SalesOutcomes[status])
			}
		}
	case s.Canvassing != nil:
		printField(w, "Door hangers", s.Canvassing.DoorHangersPlaced)
	}
}

func printSessionTable(w io.Writer, sessions []models.Session) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SESSION\tTYPE\tSTARTED\tDURATION\tMILES\tVISITS\tQUOTED")
	_, _ = fmt.Fprintln(tw, "-------\t----\t-------\t--------\t-----\t------\t------")
	for _, s := range sessions {
		b := s.Base()
		duration := "running"
		if b.Duration != nil {
			duration = *b.Duration
		}
		visits, quoted := 0, 0.0
		switch {
		case s.Visit != nil:
			visits, quoted = s.Visit.TotalVisits, s.Visit.OpportunityTotal
		case s.Canvassing != nil:
			visits = s.Canvassing.DoorHangersPlaced
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%d\t$%.2f\n",
			b.SessionID, s.Kind, b.StartTime.Local().Format("2006-01-02 15:04"), duration,
			b.MilesWalked, visits, quoted)
	}
	_ = tw.Flush()
}

func printVisitTable(w io.Writer, visits []models.Visit) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tSTATUS\tNAME\tSTREET\tQUOTED")
	_, _ = fmt.Fprintln(tw, "----\t------\t----\t------\t------")
	for _, v := range visits {
		name := models.Contact{FirstName: v.FirstName, LastName: v.LastName}.Name()
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t$%.2f\n",
			v.CreatedAt.Local().Format("15:04"), v.SalesStatus, name, v.Street, v.TotalQuoted)
	}
	_ = tw.Flush()
}

func printPrice(w io.Writer, p models.PriceBreakdown) {
	printField(w, "Driveway", fmt.Sprintf("%s (list $%.2f)", money(p.DrivewayQuoted), p.DrivewayUndiscounted))
	printField(w, "Crack repair", fmt.Sprintf("%s (list $%.2f)", money(p.CrackQuoted), p.CrackUndiscounted))
	printField(w, "Asphalt repair", money(p.Asphalt))
	printField(w, "Total", fmt.Sprintf("%s (list $%.2f)", money(p.TotalQuoted), p.TotalUndiscounted))
	printField(w, "Savings", money(p.TotalDiscount))
}
