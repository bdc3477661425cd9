package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmiclean/model"
)

func openTestDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Open()
	require.NoError(t, err)
	t.Cleanup(func() { ds.Close() })
	return ds
}

func sampleChanges() []model.Change {
	return []model.Change{
		{
			ID:        "missing_psa_1",
			IssueType: model.IssueMissingPSATape,
			Action:    model.ActionUpdate,
			RowID:     "1",
			Status:    model.StatusPending,
			Before:    map[string]string{"PSA_TAPE_PIC": ""},
			After:     map[string]string{"PSA_TAPE_PIC": "IMG_0012.jpg"},
		},
		{
			ID:        "duplicate_2",
			IssueType: model.IssueDuplicateInsert,
			Action:    model.ActionDelete,
			RowID:     "2",
			Status:    model.StatusPending,
		},
		{
			ID:        "orphan_3",
			IssueType: model.IssueOrphanRow,
			Action:    model.ActionDelete,
			RowID:     "3",
			Status:    model.StatusPending,
		},
	}
}

func TestReplaceAndListChanges(t *testing.T) {
	ds := openTestDataset(t)
	require.NoError(t, ReplaceChanges(ds.DB, sampleChanges()))

	all, err := ListChanges(ds.DB, "", "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Pipeline order survives the round trip.
	assert.Equal(t, "missing_psa_1", all[0].ID)
	assert.Equal(t, "duplicate_2", all[1].ID)
	assert.Equal(t, "orphan_3", all[2].ID)
	assert.Equal(t, map[string]string{"PSA_TAPE_PIC": "IMG_0012.jpg"}, all[0].After)
}

func TestListChangesFilters(t *testing.T) {
	ds := openTestDataset(t)
	require.NoError(t, ReplaceChanges(ds.DB, sampleChanges()))

	byType, err := ListChanges(ds.DB, string(model.IssueDuplicateInsert), "")
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "duplicate_2", byType[0].ID)

	_, err = SetChangeStatus(ds.DB, "orphan_3", model.StatusApproved)
	require.NoError(t, err)

	approved, err := ListChanges(ds.DB, "", string(model.StatusApproved))
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "orphan_3", approved[0].ID)

	both, err := ListChanges(ds.DB, string(model.IssueOrphanRow), string(model.StatusPending))
	require.NoError(t, err)
	assert.Empty(t, both)
}

func TestSetChangeStatusIdempotent(t *testing.T) {
	ds := openTestDataset(t)
	require.NoError(t, ReplaceChanges(ds.DB, sampleChanges()))

	first, err := SetChangeStatus(ds.DB, "missing_psa_1", model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, first.Status)

	// Approving an already-approved change is a no-op, not an error.
	second, err := SetChangeStatus(ds.DB, "missing_psa_1", model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSetChangeStatusUnknownID(t *testing.T) {
	ds := openTestDataset(t)
	require.NoError(t, ReplaceChanges(ds.DB, sampleChanges()))

	_, err := SetChangeStatus(ds.DB, "no_such_change", model.StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = GetChange(ds.DB, "no_such_change")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetAllPending(t *testing.T) {
	ds := openTestDataset(t)
	require.NoError(t, ReplaceChanges(ds.DB, sampleChanges()))

	_, err := SetChangeStatus(ds.DB, "duplicate_2", model.StatusRejected)
	require.NoError(t, err)

	// Only the two still-pending proposals move.
	n, err := SetAllPending(ds.DB, model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rejected, err := GetChange(ds.DB, "duplicate_2")
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)

	// Nothing pending left.
	n, err = SetAllPending(ds.DB, model.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCountChanges(t *testing.T) {
	ds := openTestDataset(t)
	require.NoError(t, ReplaceChanges(ds.DB, sampleChanges()))
	_, err := SetChangeStatus(ds.DB, "orphan_3", model.StatusApproved)
	require.NoError(t, err)

	stats, err := CountChanges(ds.DB)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.ByType[string(model.IssueMissingPSATape)])
	assert.Equal(t, 2, stats.ByStatus[string(model.StatusPending)])
	assert.Equal(t, 1, stats.ByStatus[string(model.StatusApproved)])
	assert.Equal(t, 0, stats.ByStatus[string(model.StatusRejected)])
	assert.Equal(t, 2, stats.ByAction[string(model.ActionDelete)])
}

func TestRecordsRoundTrip(t *testing.T) {
	ds := openTestDataset(t)

	columns := []string{"ID", "DATE", "POWER_BOARD_SN"}
	records := []model.Record{
		{Columns: columns, Values: map[string]string{"ID": "1", "DATE": "10:00:00", "POWER_BOARD_SN": "P1"}},
		{Columns: columns, Values: map[string]string{"ID": "2", "DATE": "10:01:00", "POWER_BOARD_SN": ""}},
	}
	require.NoError(t, ReplaceRecords(ds.DB, records, columns))

	loaded, err := LoadRecords(ds.DB)
	require.NoError(t, err)
	assert.Equal(t, records, loaded)

	gotColumns, err := LoadColumns(ds.DB)
	require.NoError(t, err)
	assert.Equal(t, columns, gotColumns)

	n, err := CountRecords(ds.DB)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUploads(t *testing.T) {
	ds := openTestDataset(t)

	require.NoError(t, SaveUpload(ds.DB, UploadMMI, "", "run1.log", []byte("payload")))
	name, content, err := GetUpload(ds.DB, UploadMMI, "")
	require.NoError(t, err)
	assert.Equal(t, "run1.log", name)
	assert.Equal(t, []byte("payload"), content)

	// Same key replaces.
	require.NoError(t, SaveUpload(ds.DB, UploadMMI, "", "run2.log", []byte("other")))
	name, _, err = GetUpload(ds.DB, UploadMMI, "")
	require.NoError(t, err)
	assert.Equal(t, "run2.log", name)

	_, _, err = GetUpload(ds.DB, UploadTable, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStationUploads(t *testing.T) {
	ds := openTestDataset(t)

	require.NoError(t, SaveUpload(ds.DB, UploadBarcode, "BS", "bs.txt", []byte("a")))
	require.NoError(t, SaveUpload(ds.DB, UploadError, "BS", "bs_err.txt", []byte("b")))
	require.NoError(t, SaveUpload(ds.DB, UploadBarcode, "BA", "ba.txt", []byte("c")))
	require.NoError(t, SaveUpload(ds.DB, UploadMMI, "", "mmi.log", []byte("d")))

	uploads, err := ListStationUploads(ds.DB)
	require.NoError(t, err)
	// The cleanup-side MMI upload stays out of the station list.
	require.Len(t, uploads, 3)
	assert.Equal(t, "BA", uploads[0].Station)

	require.NoError(t, DeleteStationUploads(ds.DB))
	uploads, err = ListStationUploads(ds.DB)
	require.NoError(t, err)
	assert.Empty(t, uploads)

	// Cleanup uploads survive an analytics reset.
	_, _, err = GetUpload(ds.DB, UploadMMI, "")
	require.NoError(t, err)
}

func TestDatasetReset(t *testing.T) {
	ds := openTestDataset(t)

	require.NoError(t, SaveUpload(ds.DB, UploadMMI, "", "mmi.log", []byte("x")))
	require.NoError(t, ReplaceChanges(ds.DB, sampleChanges()))
	ds.MMIFilename = "mmi.log"
	ds.MMIEvents = []model.Event{{LineNumber: 1}}

	require.NoError(t, ds.Reset())

	assert.Empty(t, ds.MMIEvents)
	assert.Empty(t, ds.MMIFilename)
	_, _, err := GetUpload(ds.DB, UploadMMI, "")
	assert.ErrorIs(t, err, ErrNotFound)
	stats, err := CountChanges(ds.DB)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
}
