package ghsync

import (
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"mamacal/internal/model"
)

// SheetName is the single sheet written to the spreadsheet target.
const SheetName = "Events"

var sheetHeader = []any{"Date", "Type", "Title", "Notes"}

// EncodeJSON renders the event list as the pretty-printed JSON target
// file.
func EncodeJSON(events []model.Event) ([]byte, error) {
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// EncodeXLSX renders the event list as a single-sheet workbook with a
// header row, the same shape the primary source loader reads back.
func EncodeXLSX(events []model.Event) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	if err := f.SetSheetRow(SheetName, "A1", &sheetHeader); err != nil {
		return nil, err
	}
	for i, ev := range events {
		cell := fmt.Sprintf("A%d", i+2)
		row := []any{ev.Date, ev.Type, ev.Title, ev.Notes}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
