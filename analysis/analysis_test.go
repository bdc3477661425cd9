package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mmiclean/config"
	"mmiclean/model"
	"mmiclean/parsers"
)

func testConfig() config.Config {
	return config.Config{
		PSASearchWindow:      60,
		InsertEvidenceWindow: 10,
		CameraEvidenceWindow: 30,
		RepeatedInsertWindow: 30,
	}
}

var productColumns = append([]string{"ID"}, parsers.InsertColumns...)

// makeRow builds a product-table record; unset columns are empty.
func makeRow(id string, values map[string]string) model.Record {
	full := make(map[string]string, len(productColumns))
	for _, col := range productColumns {
		full[col] = values[col]
	}
	full["ID"] = id
	return model.Record{Columns: productColumns, Values: full}
}

func TestFindMissingPSATapeWithCandidate(t *testing.T) {
	events := parsers.ParseMMILog(
		"[9:45:14 AM]+4,OK,IMG_0012.jpg\n" +
			"[9:45:30 AM]insert into T VALUES('x')\n")
	records := []model.Record{
		makeRow("1", map[string]string{
			"DATE":           "2025-11-06 09:45:30",
			"POWER_BOARD_SN": "P123",
		}),
	}

	changes := FindMissingPSATape(events, records, testConfig())
	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, "missing_psa_1", c.ID)
	assert.Equal(t, model.IssueMissingPSATape, c.IssueType)
	assert.Equal(t, model.ActionUpdate, c.Action)
	assert.Equal(t, "IMG_0012.jpg", c.SuggestedValue)
	assert.Equal(t, "IMG_0012.jpg", c.After["PSA_TAPE_PIC"])
	assert.Equal(t, "", c.Before["PSA_TAPE_PIC"])
	assert.Equal(t, model.StatusPending, c.Status)
	// Tape capture plus the nearby INSERT both land in the evidence.
	assert.Len(t, c.EvidenceLines, 2)
}

func TestFindMissingPSATapeNoCandidate(t *testing.T) {
	// The only tape event is outside the search window.
	events := parsers.ParseMMILog("[11:00:00 AM]+4,OK,IMG_0099.jpg\n")
	records := []model.Record{
		makeRow("1", map[string]string{
			"DATE":       "2025-11-06 09:45:30",
			"BATTERY_SN": "B456",
		}),
	}

	changes := FindMissingPSATape(events, records, testConfig())
	require.Len(t, changes, 1)
	assert.Equal(t, model.ActionFlag, changes[0].Action)
	assert.Empty(t, changes[0].SuggestedValue)
	assert.Nil(t, changes[0].After)
}

func TestFindMissingPSATapeSkipsBlankRows(t *testing.T) {
	// No serial data at all: that is the orphan detector's territory.
	records := []model.Record{
		makeRow("1", map[string]string{"DATE": "2025-11-06 09:45:30"}),
	}
	assert.Empty(t, FindMissingPSATape(nil, records, testConfig()))
}

func TestFindDuplicateRows(t *testing.T) {
	records := []model.Record{
		makeRow("1", map[string]string{
			"DATE": "2025-11-06 09:45:30", "POWER_BOARD_SN": "P1", "BATTERY_SN": "B1", "PSA_TAPE_PIC": "t1",
		}),
		makeRow("2", map[string]string{
			"DATE": "2025-11-06 09:45:30", "POWER_BOARD_SN": "P1", "BATTERY_SN": "B1", "PSA_TAPE_PIC": "t1",
		}),
		makeRow("3", map[string]string{
			"DATE": "2025-11-06 09:45:30", "POWER_BOARD_SN": "P2", "BATTERY_SN": "B1", "PSA_TAPE_PIC": "t1",
		}),
	}

	changes := FindDuplicateRows(nil, records, testConfig())
	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, "duplicate_2", c.ID)
	assert.Equal(t, model.ActionDelete, c.Action)
	assert.Equal(t, "2", c.RowID)
	assert.Equal(t, "1", c.DuplicateOf)
}

func TestFindDuplicateRowsEmptyDateNeverMatches(t *testing.T) {
	records := []model.Record{
		makeRow("1", map[string]string{"POWER_BOARD_SN": "P1"}),
		makeRow("2", map[string]string{"POWER_BOARD_SN": "P1"}),
	}
	assert.Empty(t, FindDuplicateRows(nil, records, testConfig()))
}

func TestFindOrphanRows(t *testing.T) {
	records := []model.Record{
		makeRow("1", map[string]string{
			"DATE": "2025-11-06 09:45:30", "PSA_TAPE_PIC": "tape.jpg",
		}),
		makeRow("2", map[string]string{
			"DATE": "2025-11-06 09:46:00", "POWER_BOARD_SN": "P1", "PSA_TAPE_PIC": "tape.jpg",
		}),
		makeRow("3", map[string]string{"DATE": "2025-11-06 09:47:00"}),
	}

	changes := FindOrphanRows(nil, records, testConfig())
	require.Len(t, changes, 1)
	assert.Equal(t, "orphan_1", changes[0].ID)
	assert.Equal(t, model.ActionDelete, changes[0].Action)
}

func TestFindIndexMismatches(t *testing.T) {
	records := []model.Record{
		makeRow("1", map[string]string{
			"DATE":                "2025-11-06 09:45:30",
			"POWER_BOARD_SN_PIC":  "IMG_0005",
			"POWER_BOARD_PSA_PIC": "IMG_0020",
		}),
		makeRow("2", map[string]string{
			"POWER_BOARD_SN_PIC":  "IMG_0005",
			"POWER_BOARD_PSA_PIC": "IMG_0011",
		}),
	}

	changes := FindIndexMismatches(nil, records, testConfig())
	require.Len(t, changes, 1)
	c := changes[0]
	assert.Equal(t, "index_mismatch_power_1", c.ID)
	assert.Equal(t, model.ActionUpdate, c.Action)
	assert.Equal(t, 5, c.SNIndex)
	assert.Equal(t, 20, c.PSAIndex)
	assert.Equal(t, 11, c.ExpectedIndex)
	// The rewrite preserves the digit width.
	assert.Equal(t, "IMG_0011", c.SuggestedValue)
	assert.Equal(t, "IMG_0011", c.After["POWER_BOARD_PSA_PIC"])
}

func TestFindIndexMismatchesBothComponents(t *testing.T) {
	records := []model.Record{
		makeRow("1", map[string]string{
			"POWER_BOARD_SN_PIC":  "p_001",
			"POWER_BOARD_PSA_PIC": "p_009",
			"BATTERY_SN_PIC":      "b_002",
			"BATTERY_PSA_PIC":     "b_003",
		}),
	}

	changes := FindIndexMismatches(nil, records, testConfig())
	require.Len(t, changes, 2)
	assert.Equal(t, "index_mismatch_power_1", changes[0].ID)
	assert.Equal(t, "p_007", changes[0].SuggestedValue)
	assert.Equal(t, "index_mismatch_battery_1", changes[1].ID)
	assert.Equal(t, "b_008", changes[1].SuggestedValue)
}

func TestFindIndexMismatchesSkipsUnindexedValues(t *testing.T) {
	records := []model.Record{
		makeRow("1", map[string]string{
			"POWER_BOARD_SN_PIC":  "no-suffix",
			"POWER_BOARD_PSA_PIC": "IMG_0020",
		}),
	}
	assert.Empty(t, FindIndexMismatches(nil, records, testConfig()))
}

func TestFindRepeatedInserts(t *testing.T) {
	log := "[9:45:00 AM]insert into T VALUES('2025-11-06 09:45:00','L','t','P1')\n" +
		"[9:45:05 AM]insert into T VALUES('2025-11-06 09:45:00','L','t','P1')\n" +
		"[9:45:10 AM]insert into T VALUES('2025-11-06 09:45:00','L','t','P1')\n" +
		"[9:50:00 AM]insert into T VALUES('2025-11-06 09:50:00','L2','t2','P2')\n"
	events := parsers.ParseMMILog(log)
	records := []model.Record{
		makeRow("1", map[string]string{"DATE": "2025-11-06 09:45:00"}),
		makeRow("2", map[string]string{"DATE": "2025-11-06 09:45:06"}),
		makeRow("3", map[string]string{"DATE": "2025-11-06 09:50:00"}),
	}

	changes := FindRepeatedInserts(events, records, testConfig())
	require.Len(t, changes, 2)

	// Occurrences 2 and 3 of the run; the first is kept.
	assert.Equal(t, "repeated_insert_2", changes[0].ID)
	assert.Equal(t, "repeated_insert_3", changes[1].ID)

	// Nearest-row matching claims a distinct row per occurrence.
	assert.Equal(t, model.ActionDelete, changes[0].Action)
	assert.Equal(t, model.ActionDelete, changes[1].Action)
	assert.NotEqual(t, changes[0].RowID, changes[1].RowID)

	// The whole run travels as evidence on each proposal.
	assert.Len(t, changes[0].EvidenceLines, 3)
}

func TestFindRepeatedInsertsRunOfTwoIgnored(t *testing.T) {
	log := "[9:45:00 AM]insert into T VALUES('a','b')\n" +
		"[9:45:05 AM]insert into T VALUES('a','b')\n"
	events := parsers.ParseMMILog(log)
	assert.Empty(t, FindRepeatedInserts(events, nil, testConfig()))
}

func TestFindRepeatedInsertsWindowBreaksRun(t *testing.T) {
	// Identical payloads, but the third repeat arrives past the window, so
	// no run reaches length three.
	log := "[9:45:00 AM]insert into T VALUES('a','b')\n" +
		"[9:45:05 AM]insert into T VALUES('a','b')\n" +
		"[9:50:00 AM]insert into T VALUES('a','b')\n"
	events := parsers.ParseMMILog(log)
	assert.Empty(t, FindRepeatedInserts(events, nil, testConfig()))
}

func TestFindAllIssuesDeterministic(t *testing.T) {
	log := "[9:45:14 AM]+4,OK,IMG_0012.jpg\n" +
		"[9:45:30 AM]insert into T VALUES('2025-11-06 09:45:30','L','','P123')\n"
	events := parsers.ParseMMILog(log)
	records := []model.Record{
		makeRow("1", map[string]string{
			"DATE":           "2025-11-06 09:45:30",
			"POWER_BOARD_SN": "P123",
		}),
		makeRow("2", map[string]string{
			"DATE":         "2025-11-06 09:46:00",
			"PSA_TAPE_PIC": "tape.jpg",
		}),
	}

	first := FindAllIssues(events, records, testConfig())
	second := FindAllIssues(events, records, testConfig())
	assert.Equal(t, first, second)

	// Detector output order is fixed: missing-PSA proposals before orphans.
	require.Len(t, first, 2)
	assert.Equal(t, model.IssueMissingPSATape, first[0].IssueType)
	assert.Equal(t, model.IssueOrphanRow, first[1].IssueType)
}

func TestFindErrorEventMismatches(t *testing.T) {
	columns := []string{"ID", "ERROR_CODE", "ERROR_TIME", "CLEAR_TIME"}
	errRow := func(id, code, set, clear string) model.Record {
		return model.Record{Columns: columns, Values: map[string]string{
			"ID": id, "ERROR_CODE": code, "ERROR_TIME": set, "CLEAR_TIME": clear,
		}}
	}

	events := parsers.ParseMMILog(
		"[10:15:02 AM]ERROR 3002 PRESS FAULT\n" +
			"[10:16:40 AM]ERROR 3002 CLEAR\n")

	records := []model.Record{
		errRow("1", "3002", "10:15:02", ""),         // matched, missing clear time
		errRow("2", "3002", "10:15:02", ""),         // exact duplicate of row 1
		errRow("3", "9999", "11:30:00", "11:31:00"), // no MMI counterpart
	}

	changes := FindErrorEventMismatches(events, records)
	require.Len(t, changes, 3)

	byID := map[string]model.Change{}
	for _, c := range changes {
		byID[c.ID] = c
	}

	noClear := byID["error_noclear_1"]
	assert.Equal(t, model.ActionUpdate, noClear.Action)
	assert.Equal(t, "10:16:40 AM", noClear.SuggestedClearTime)
	assert.Equal(t, "10:16:40 AM", noClear.After["CLEAR_TIME"])

	dup := byID["error_duplicate_2"]
	assert.Equal(t, model.ActionDelete, dup.Action)
	assert.Equal(t, "1", dup.DuplicateOf)

	noMatch := byID["error_nomatch_3"]
	assert.Equal(t, model.ActionFlag, noMatch.Action)
}

func TestFindErrorEventMismatchesInactiveWithoutColumn(t *testing.T) {
	records := []model.Record{
		makeRow("1", map[string]string{"DATE": "2025-11-06 09:45:30"}),
	}
	assert.Nil(t, FindErrorEventMismatches(nil, records))
}
