package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/mesh-intelligence/keepsake/internal/summary"
	"github.com/mesh-intelligence/keepsake/pkg/types"
)

// maxDataWidth bounds the DATA column of record listings.
const maxDataWidth = 72

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	return t
}

// renderRecords prints one row per record with its compact JSON, cut to fit.
func renderRecords(w io.Writer, recs []types.Record) error {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Data"})
	for _, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", rec.RecordID(), err)
		}
		t.AppendRow(table.Row{rec.RecordID(), text.Snip(string(data), maxDataWidth, "…")})
	}
	t.AppendFooter(table.Row{fmt.Sprintf("%d records", len(recs)), ""})
	t.Render()
	return nil
}

func renderExport(w io.Writer, r exportResult) {
	fmt.Fprintf(w, "exported %d records to %s\n", r.Records, r.Path)
	if r.Remote != "" {
		fmt.Fprintf(w, "pushed as %s\n", r.Remote)
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"Collection", "Fingerprint"})
	for _, name := range types.StandardCollectionNames {
		if fp, ok := r.Fingerprint[name]; ok {
			t.AppendRow(table.Row{name, fp})
		}
	}
	t.Render()
}

func renderHome(w io.Writer, s summary.HomeStats) {
	t := newTable(w)
	t.SetTitle("Month " + s.Month)
	t.AppendRows([]table.Row{
		{"Income", formatAmount(s.MonthIncome)},
		{"Expense", formatAmount(s.MonthExpense)},
		{"Balance", formatAmount(s.Balance)},
		{"Budget", formatAmount(s.MonthlyBudget)},
		{"Budget left", formatAmount(s.BudgetLeft)},
		{"Diaries", s.DiaryCount},
		{"Photos", s.PhotoCount},
	})
	if s.OverBudget {
		t.AppendFooter(table.Row{"over budget", ""})
	}
	t.Render()
}

func renderAnnual(w io.Writer, s summary.AnnualStats) {
	t := newTable(w)
	t.SetTitle(fmt.Sprintf("Year %d", s.Year))
	t.AppendRows([]table.Row{
		{"Income", formatAmount(s.Income)},
		{"Expense", formatAmount(s.Expense)},
		{"Diaries", s.DiaryCount},
		{"Photos", s.PhotoCount},
	})
	t.Render()

	if len(s.ExpenseByCategory) == 0 {
		return
	}
	categories := make([]string, 0, len(s.ExpenseByCategory))
	for c := range s.ExpenseByCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	ct := newTable(w)
	ct.AppendHeader(table.Row{"Category", "Expense"})
	for _, c := range categories {
		ct.AppendRow(table.Row{c, formatAmount(s.ExpenseByCategory[c])})
	}
	ct.Render()
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
