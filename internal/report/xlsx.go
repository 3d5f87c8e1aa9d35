package report

import (
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// HistorySheet is the sheet name WriteXLSX uses.
const HistorySheet = "Stage history"

var historyHeader = []string{"Start", "End", "Stage ID", "Stage", "Duration", "Minutes", "Current"}

// WriteXLSX saves the report's stage history as a workbook at path, one
// segment per row, times in loc.
func WriteXLSX(r *Report, loc *time.Location, path string) error {
	if loc == nil {
		loc = time.UTC
	}
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(HistorySheet)
	if err != nil {
		return eris.Wrap(err, "xlsx: add sheet")
	}

	addRow(sheet, historyHeader...)
	for _, s := range r.History {
		current := "no"
		if s.Current {
			current = "yes"
		}
		addRow(sheet,
			s.Start.In(loc).Format(timeLayout),
			s.End.In(loc).Format(timeLayout),
			s.StageID,
			s.Label,
			UkrainianUnits.Format(s.Duration),
			strconv.FormatInt(int64(s.Duration/time.Minute), 10),
			current,
		)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "xlsx: save %s", path)
	}
	return nil
}

func addRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
