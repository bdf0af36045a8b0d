package export

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/hyperjump/tebiki/internal/models"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chunks.xlsx")
	records := []models.ChunkRecord{
		{Manual: "radio", Path: "radio/images/p1.jpg", ChunkIndex: 0, Text: "Turn the knob clockwise."},
		{Manual: "radio", Path: "radio/images/p1.jpg", ChunkIndex: 1, Text: "Volumen erhöhen."},
	}
	if err := WriteXLSX(path, records); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); !reflect.DeepEqual(sheets, []string{SheetName}) {
		t.Errorf("sheets = %v", sheets)
	}
	header, err := f.GetCellValue(SheetName, "A1")
	if err != nil || header != "manual" {
		t.Errorf("A1 = %q, %v", header, err)
	}
	chars, _ := f.GetCellValue(SheetName, "E3")
	if chars != "16" {
		t.Errorf("E3 (characters) = %q, want 16", chars)
	}

	got, err := ReadXLSX(path)
	if err != nil {
		t.Fatalf("ReadXLSX: %v", err)
	}
	if !reflect.DeepEqual(got, records) {
		t.Errorf("ReadXLSX = %+v", got)
	}
}

func TestWriteXLSX_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := WriteXLSX(path, nil); err != nil {
		t.Fatal(err)
	}
	got, err := ReadXLSX(path)
	if err != nil || len(got) != 0 {
		t.Errorf("ReadXLSX = %+v, %v", got, err)
	}
}
