package todos

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCSVEmptyHasHeader(t *testing.T) {
	body, err := RenderCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "id,title,description,priority,completed,tags,assignedUsers,createdAt,updatedAt\n", string(body))
}

func TestRenderCSVQuotesAndJoins(t *testing.T) {
	created := time.Date(2026, 4, 2, 9, 30, 0, 500, time.FixedZone("CEST", 2*60*60))
	body, err := RenderCSV([]Todo{{
		ID:              "t1",
		Title:           `Say "hi", then leave`,
		Description:     "line one\nline two",
		Priority:        PriorityHigh,
		Completed:       true,
		Tags:            []string{"work", "urgent"},
		AssignedUserIDs: []string{"u-1", "u-2"},
		CreatedAt:       created,
		UpdatedAt:       created,
	}})
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{
		"t1",
		`Say "hi", then leave`,
		"line one\nline two",
		"high",
		"true",
		"work, urgent",
		"u-1, u-2",
		"2026-04-02T07:30:00.0000005Z",
		"2026-04-02T07:30:00.0000005Z",
	}, records[1])
}
