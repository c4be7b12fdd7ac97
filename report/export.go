// ABOUTME: Spreadsheet export of field sessions and their visits
// ABOUTME: Writes a Sessions sheet and a Visits sheet with excelize
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/harperreed/workly/geo"
	"github.com/harperreed/workly/models"
	"github.com/xuri/excelize/v2"
)

const (
	SessionsSheet = "Sessions"
	VisitsSheet   = "Visits"

	timeLayout = "2006-01-02 15:04"
)

var sessionHeaders = []string{
	"Session ID", "Type", "Salesperson", "Start", "End", "Duration", "Miles Walked", "Points",
	"Total Visits", "Opportunities", "Opportunity Total", "Est. Commission", "Door Hangers", "Active",
	"Path Miles",
}

var visitHeaders = []string{
	"Created", "Session ID", "Salesperson", "Status", "Name", "Email", "Phone",
	"Street", "City", "State", "Zip", "County",
	"Sqft", "Crack Feet", "Asphalt Sqft", "Driveway Quoted", "Crack Quoted", "Asphalt",
	"Total Quoted", "Total Discount", "Notes",
}

// ExportSessionsFile writes the workbook to path.
func ExportSessionsFile(path string, sessions []models.Session, visits []models.Visit) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := ExportSessions(out, sessions, visits); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// ExportSessions writes one row per session and one row per visit.
func ExportSessions(w io.Writer, sessions []models.Session, visits []models.Visit) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SessionsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(VisitsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeSheet(f, SessionsSheet, sessionHeaders, headerStyle, sessionRows(sessions)); err != nil {
		return err
	}
	if err := writeSheet(f, VisitsSheet, visitHeaders, headerStyle, visitRows(visits)); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, headerStyle int, rows [][]interface{}) error {
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze %s header: %w", sheet, err)
	}
	return nil
}

func sessionRows(sessions []models.Session) [][]interface{} {
	rows := make([][]interface{}, 0, len(sessions))
	for _, s := range sessions {
		b := s.Base()
		end, duration := "", ""
		if b.EndTime != nil {
			end = b.EndTime.Format(timeLayout)
		}
		if b.Duration != nil {
			duration = *b.Duration
		}

		var visits, opportunities, hangers int
		var oppTotal, commission float64
		switch {
		case s.Visit != nil:
			visits = s.Visit.TotalVisits
			opportunities = s.Visit.OpportunityCount
			oppTotal = s.Visit.OpportunityTotal
			commission = s.Visit.EstimatedCommission
		case s.Canvassing != nil:
			hangers = s.Canvassing.DoorHangersPlaced
		}

		rows = append(rows, []interface{}{
			b.SessionID, string(s.Kind), b.Salesperson, formatTime(b.StartTime), end, duration,
			b.MilesWalked, len(b.Polyline), visits, opportunities, oppTotal, commission, hangers, b.Active,
			pathMiles(b.Polyline),
		})
	}
	return rows
}

func visitRows(visits []models.Visit) [][]interface{} {
	rows := make([][]interface{}, 0, len(visits))
	for _, v := range visits {
		name := models.Contact{FirstName: v.FirstName, LastName: v.LastName}.Name()
		rows = append(rows, []interface{}{
			formatTime(v.CreatedAt), v.SessionID, v.Salesperson, v.SalesStatus, name, v.Email, v.Phone,
			v.Street, v.City, v.State, v.Zip, v.County,
			v.Sqft, v.CrackFeet, v.AsphaltRepair, v.DrivewayQuoted, v.CrackQuoted, v.Asphalt,
			v.TotalQuoted, v.TotalDiscount, v.Notes,
		})
	}
	return rows
}

// pathMiles recomputes the walked distance from the stored polyline, to the
// cent of a mile, so it can be checked against Miles Walked.
func pathMiles(points []models.Point) float64 {
	return math.Round(geo.PathDistance(points)*100) / 100
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
