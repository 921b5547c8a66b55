package checkpoint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsight/internal/dataset"
	apperrors "jobsight/internal/errors"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(filepath.Join(t.TempDir(), "checkpoints"))
	require.NoError(t, err)
	return m
}

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.New([]string{"job_id", "job_title"})
	require.NoError(t, err)
	require.NoError(t, table.AppendRow([]string{"J1", "Engineer"}))
	require.NoError(t, table.AppendRow([]string{"J2", "Analyst"}))
	return table
}

func mustSave(t *testing.T, m *Manager, table *dataset.Table, name string, extra map[string]string) {
	t.Helper()
	_, err := m.Save(table, name, extra)
	require.NoError(t, err)
}

func TestManager_SaveLoadRoundTrip(t *testing.T) {
	m := newManager(t)
	table := sampleTable(t)

	written, err := m.Save(table, "01_after_cleaning", map[string]string{"run_id": "r1"})
	require.NoError(t, err)
	require.True(t, m.Exists("01_after_cleaning"))

	// Save reports the CSV payload size
	stat, err := os.Stat(filepath.Join(m.Dir(), "01_after_cleaning.csv"))
	require.NoError(t, err)
	assert.Equal(t, stat.Size(), written)

	loaded, meta, err := m.LoadWithMetadata("01_after_cleaning")
	require.NoError(t, err)
	assert.Equal(t, table.Columns(), loaded.Columns())
	assert.Equal(t, 2, loaded.NumRows())
	assert.Equal(t, "Analyst", loaded.Value(1, "job_title"))
	assert.Equal(t, "01_after_cleaning", meta.Name)
	assert.Equal(t, 2, meta.Rows)
	assert.Equal(t, "r1", meta.Extra["run_id"])
	assert.Len(t, meta.Digest, 64)
}

func TestManager_LoadMissingIsNotFound(t *testing.T) {
	m := newManager(t)
	_, err := m.Load("02_after_skills")
	require.ErrorIs(t, err, ErrNotFound)
	assert.False(t, m.Exists("02_after_skills"))
}

func TestManager_DigestMismatchIsStorageError(t *testing.T) {
	m := newManager(t)
	mustSave(t, m, sampleTable(t), "02_after_skills", nil)

	// flip one payload byte behind the manager's back
	path := filepath.Join(m.Dir(), "02_after_skills.csv")
	payload, err := os.ReadFile(path)
	require.NoError(t, err)
	payload[len(payload)-2] ^= 0x01
	require.NoError(t, os.WriteFile(path, payload, 0o644))

	_, err = m.Load("02_after_skills")
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrTypeStorage, appErr.Type)
	assert.Contains(t, err.Error(), "digest mismatch")
}

func TestManager_SaveOverwritesBothFiles(t *testing.T) {
	m := newManager(t)
	mustSave(t, m, sampleTable(t), "01_after_cleaning", nil)

	replacement, err := dataset.New([]string{"job_id"})
	require.NoError(t, err)
	require.NoError(t, replacement.AppendRow([]string{"J9"}))
	mustSave(t, m, replacement, "01_after_cleaning", nil)

	loaded, meta, err := m.LoadWithMetadata("01_after_cleaning")
	require.NoError(t, err)
	assert.Equal(t, []string{"job_id"}, loaded.Columns())
	assert.Equal(t, 1, meta.Rows)
}

func TestManager_InvalidName(t *testing.T) {
	m := newManager(t)
	for _, name := range []string{"", "After-Cleaning", "step one", "../escape"} {
		_, err := m.Save(sampleTable(t), name, nil)
		require.Error(t, err, name)
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type, name)
	}
}

func TestManager_ListSortedByName(t *testing.T) {
	m := newManager(t)
	for _, name := range []string{"03_after_salary", "01_after_cleaning", "02_after_skills"} {
		mustSave(t, m, sampleTable(t), name, nil)
	}

	infos, err := m.List()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "01_after_cleaning", infos[0].Name)
	assert.Equal(t, "02_after_skills", infos[1].Name)
	assert.Equal(t, "03_after_salary", infos[2].Name)
	for _, info := range infos {
		assert.Positive(t, info.Size)
		assert.False(t, info.CreatedAt.IsZero())
	}
}

func TestManager_ClearIsIdempotent(t *testing.T) {
	m := newManager(t)
	mustSave(t, m, sampleTable(t), "01_after_cleaning", nil)

	require.NoError(t, m.Clear("01_after_cleaning"))
	assert.False(t, m.Exists("01_after_cleaning"))
	assert.NoError(t, m.Clear("01_after_cleaning"))
	assert.NoError(t, m.Clear("never_saved"))
}

func TestManager_ClearAll(t *testing.T) {
	m := newManager(t)
	for _, name := range []string{"01_after_cleaning", "02_after_skills"} {
		mustSave(t, m, sampleTable(t), name, nil)
	}

	require.NoError(t, m.ClearAll())
	infos, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, infos)
}
