package todos

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"
	"time"
)

var exportHeader = []string{
	"id", "title", "description", "priority", "completed",
	"tags", "assignedUsers", "createdAt", "updatedAt",
}

// RenderCSV writes one row per todo under a fixed header. List columns are
// joined with ", " and timestamps are RFC 3339 in UTC.
func RenderCSV(todos []Todo) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, t := range todos {
		record := []string{
			t.ID,
			t.Title,
			t.Description,
			string(t.Priority),
			strconv.FormatBool(t.Completed),
			strings.Join(t.Tags, ", "),
			strings.Join(t.AssignedUserIDs, ", "),
			t.CreatedAt.UTC().Format(time.RFC3339Nano),
			t.UpdatedAt.UTC().Format(time.RFC3339Nano),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
