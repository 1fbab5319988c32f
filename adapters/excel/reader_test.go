package excel

import (
	"os"
	"path/filepath"
	"testing"

	"cyclewise/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadObservationsCSV(t *testing.T) {
	path := writeCSV(t, `Timestamp,Mood,Energy,Symptoms,Notes
2026-01-05,7.5,6,headache; Fatigue,slow morning
2026-01-06T09:30:00Z,,4.5,,felt scattered
2026-01-07,8,,,
`)

	reader := NewDataReader(path)
	obs, err := reader.ReadObservations(core.UserID("u1"))
	require.NoError(t, err)
	require.Len(t, obs, 3)

	first := obs[0]
	require.NotNil(t, first.Mood)
	assert.Equal(t, 7.5, *first.Mood)
	assert.Equal(t, []string{"headache", "fatigue"}, first.SymptomTags)
	assert.Equal(t, "slow morning", first.FreeText)
	assert.Equal(t, core.UserID("u1"), first.UserID)

	second := obs[1]
	assert.Nil(t, second.Mood)
	require.NotNil(t, second.Energy)
	assert.Equal(t, 4.5, *second.Energy)

	third := obs[2]
	assert.Nil(t, third.Energy)
	assert.Empty(t, third.SymptomTags)
}

func TestReadObservationsRejectsBadRow(t *testing.T) {
	path := writeCSV(t, `timestamp,mood
2026-01-05,7.5
someday,6
`)
	_, err := NewDataReader(path).ReadObservations(core.UserID("u1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 3")
}

func TestReadObservationsRequiresTimestampColumn(t *testing.T) {
	path := writeCSV(t, `mood,energy
7,6
`)
	_, err := NewDataReader(path).ReadObservations(core.UserID("u1"))
	assert.Error(t, err)
}

func TestReadObservationsMissingFile(t *testing.T) {
	_, err := NewDataReader("/nonexistent/export.csv").ReadObservations(core.UserID("u1"))
	assert.Error(t, err)
}
