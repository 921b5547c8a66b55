package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVRoundTrip(t *testing.T) {
	table := buildTable(t, []string{"job_id", "job_title", "salary_range"},
		[][]string{
			{"J1", "Data Engineer", "80000-120000"},
			{"J2", "ML Engineer, Senior", ""},
		})

	var buf bytes.Buffer
	require.NoError(t, table.WriteCSVTo(&buf, false))

	loaded, err := ReadCSVFrom(&buf)
	require.NoError(t, err)
	assert.Equal(t, table.Columns(), loaded.Columns())
	assert.Equal(t, table.NumRows(), loaded.NumRows())
	// embedded comma and empty cell survive the round trip
	assert.Equal(t, "ML Engineer, Senior", loaded.Value(1, "job_title"))
	assert.Equal(t, "", loaded.Value(1, "salary_range"))
}

func TestReadCSVFrom_StripsBOM(t *testing.T) {
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte("job_id,industry\nJ1,Tech\n")...)
	table, err := ReadCSVFrom(bytes.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"job_id", "industry"}, table.Columns())
}

func TestWriteCSV_BOMPrefix(t *testing.T) {
	table := buildTable(t, []string{"job_id"}, [][]string{{"J1"}})
	path := filepath.Join(t.TempDir(), "out", "jobs.csv")

	require.NoError(t, table.WriteCSV(path, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3])
}

func TestXLSXRoundTrip(t *testing.T) {
	table := buildTable(t, []string{"job_id", "location", "company_size"},
		[][]string{
			{"J1", "Austin, TX", "Large"},
			{"J2", "Bangalore, India", ""},
		})

	path := filepath.Join(t.TempDir(), "jobs.xlsx")
	require.NoError(t, table.WriteXLSX(path, "postings"))

	loaded, err := ReadXLSX(path)
	require.NoError(t, err)
	assert.Equal(t, table.Columns(), loaded.Columns())
	require.Equal(t, 2, loaded.NumRows())
	assert.Equal(t, "Bangalore, India", loaded.Value(1, "location"))
	// trailing empty cell padded back to header width
	assert.Equal(t, "", loaded.Value(1, "company_size"))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "100000", FormatFloat(100000))
	assert.Equal(t, "33333.5", FormatFloat(33333.5))
	assert.Equal(t, "0.25", FormatFloat(0.25))
}

func TestLoad_NormalizesHeadersAndEnforcesContract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "raw.csv")
	csv := "Job ID,Company Name,Industry,Job Title,Skills Required,Tools Preferred,Experience Level,Employment Type,Location,Salary Range,Posted Date,Company.Size\n" +
		"J1,Acme,Tech,Data Engineer,\"Python, SQL\",\"Tableau\",Senior,Full-time,\"Austin, TX\",80000-120000,2026-01-15,Large\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0644))

	table, err := Load(path, nil)
	require.NoError(t, err)
	assert.True(t, table.HasColumn("job_id"))
	assert.True(t, table.HasColumn("company_size"))
	assert.Equal(t, "J1", table.Value(0, "job_id"))
}

func TestLoad_MissingColumnFailsFast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(path, []byte("job_id,industry\nJ1,Tech\n"), 0644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company_name")
}

func TestCleanColumnName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Job ID", "job_id"},
		{"job-id", "job_id"},
		{"Job.ID", "job_id"},
		{"  Posted Date ", "posted_date"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanColumnName(tt.in), tt.in)
	}
}

func TestNormalizeHeaders_CollisionIsContractViolation(t *testing.T) {
	table := buildTable(t, []string{"Job ID", "job_id"}, nil)
	_, err := NormalizeHeaders(table)
	assert.Error(t, err)
}
