package export

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Shivanand-hulikatti/lnd-training-events/internal/model"
)

func TestWriteXLSXRoundTrip(t *testing.T) {
	t.Parallel()

	table := &model.AttendeeTable{
		Header: []string{"Event", "Attendee"},
		Rows: [][]string{
			{"Go fundamentals", "Adam Smith"},
			{"", "Zoe Quinn"},
		},
	}

	var buf bytes.Buffer
	if err := WriteXLSX(&buf, table); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	want := [][]string{
		{"Event", "Attendee"},
		{"Go fundamentals", "Adam Smith"},
		{"", "Zoe Quinn"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("rows = %q, want %q", rows, want)
	}
}

func TestFileName(t *testing.T) {
	t.Parallel()

	if got := FileName("ev-1"); got != "attendees_ev-1.xlsx" {
		t.Fatalf("file name = %q", got)
	}
}
