package review

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"time"
)

// ExportFilename names a CSV download for the given day, e.g.
// reviews-2026-08-28.csv.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("reviews-%s.csv", now.Format("2006-01-02"))
}

// ExportCSV renders items as CSV with a header row. Timestamps use RFC 3339;
// list columns join with "; ".
func ExportCSV(items []Item) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "title", "type", "stage", "status", "priority",
		"tags", "assignees", "due_date", "created_by", "created_at", "updated_at",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("review: write csv header: %w", err)
	}

	for _, item := range items {
		due := ""
		if item.DueDate != nil {
			due = item.DueDate.UTC().Format(time.RFC3339)
		}
		record := []string{
			item.ID,
			item.Title,
			item.ItemType,
			item.Stage,
			string(item.Status),
			string(item.Priority),
			strings.Join(item.Tags, "; "),
			strings.Join(item.Assignees, "; "),
			due,
			item.CreatedBy,
			item.CreatedAt.UTC().Format(time.RFC3339),
			item.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("review: write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("review: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
