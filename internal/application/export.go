package application

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"
)

var csvHeader = []string{
	"Reference Number",
	"Full Name",
	"Email",
	"Phone",
	"Department",
	"Level",
	"Talents",
	"Instruments",
	"Experience",
	"Motivation",
	"Availability",
	"Status",
	"Rating",
	"Tags",
	"Admin Notes",
	"Audition Date",
	"Audition Venue",
	"Submitted At",
	"Updated At",
}

// WriteCSV writes apps as CSV with a header row first. Fields containing
// quotes, commas or newlines are quoted with embedded quotes doubled. Cells
// that a spreadsheet would evaluate as a formula are prefixed with a quote.
func WriteCSV(w io.Writer, apps []Application) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i := range apps {
		if err := cw.Write(csvRow(&apps[i])); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRow(a *Application) []string {
	rating := ""
	if a.Rating != nil {
		rating = strconv.Itoa(*a.Rating)
	}
	auditionDate := ""
	if a.AuditionDate != nil {
		auditionDate = a.AuditionDate.UTC().Format(time.RFC3339)
	}
	// RefNumber and Phone are validated on intake and written as stored.
	n := neutralizeFormula
	return []string{
		a.RefNumber,
		n(a.FullName),
		n(a.Email),
		a.Phone,
		n(a.Department),
		n(string(a.Level)),
		n(strings.Join(a.Talents, "; ")),
		n(a.Instruments),
		n(a.Experience),
		n(a.Motivation),
		n(a.Availability),
		string(a.Status),
		rating,
		n(strings.Join(a.Tags, "; ")),
		n(a.AdminNotes),
		auditionDate,
		n(a.AuditionVenue),
		a.SubmittedAt.UTC().Format(time.RFC3339),
		a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func neutralizeFormula(cell string) string {
	if cell == "" {
		return cell
	}
	switch cell[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + cell
	}
	return cell
}
