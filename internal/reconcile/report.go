package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/aitools-hub/catalog-cli/internal/model"
)

// FormatSummary renders the one-screen count summary printed after every run.
func FormatSummary(r model.ChangeReport) string {
	c := r.Counts
	return fmt.Sprintf("records: %d in, %d out | reclassified: %d | removed: %d (%d artifacts, %d duplicates) | warnings: %d\n",
		c.Input, c.Output, c.Reclassified, c.Removed, c.Artifacts, c.Duplicates, c.Warnings)
}

// FormatText generates a human-readable change report.
func FormatText(r model.ChangeReport) string {
	var b strings.Builder

	b.WriteString("# Catalog Reconciliation Report\n\n")

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Input records: %d\n", r.Counts.Input)
	fmt.Fprintf(&b, "- Output records: %d\n", r.Counts.Output)
	fmt.Fprintf(&b, "- Reclassified: %d\n", r.Counts.Reclassified)
	fmt.Fprintf(&b, "- Removed: %d (%d artifacts, %d duplicates)\n", r.Counts.Removed, r.Counts.Artifacts, r.Counts.Duplicates)
	fmt.Fprintf(&b, "- Warnings: %d\n\n", r.Counts.Warnings)

	b.WriteString("## Reclassified\n")
	if len(r.Reclassified) == 0 {
		b.WriteString("No category changes.\n")
	}
	for _, rc := range r.Reclassified {
		from := rc.From
		if from == "" {
			from = "(none)"
		}
		fmt.Fprintf(&b, "- %s (%s): %s -> %s [%s", rc.Name, rc.ID, from, rc.To, rc.Source)
		if rc.Keyword != "" {
			fmt.Fprintf(&b, ": %q", rc.Keyword)
		}
		b.WriteString("]\n")
	}
	b.WriteString("\n")

	b.WriteString("## Removed\n")
	if len(r.Removed) == 0 {
		b.WriteString("No records removed.\n")
	}
	for _, rm := range r.Removed {
		fmt.Fprintf(&b, "- %s (%s) [%s]: %s\n", rm.Name, rm.ID, rm.Kind, rm.Reason)
	}
	b.WriteString("\n")

	b.WriteString("## Duplicates\n")
	if len(r.Duplicates) == 0 {
		b.WriteString("No duplicates found.\n")
	}
	for _, d := range r.Duplicates {
		fmt.Fprintf(&b, "- kept %s (%s), dropped %s (%s): %s, similarity %.3f\n",
			d.KeptName, d.KeptID, d.DroppedName, d.DroppedID, d.Match, d.Similarity)
	}
	b.WriteString("\n")

	b.WriteString("## Categories\n")
	for _, c := range r.Categories {
		fmt.Fprintf(&b, "- %s: %d\n", c.Category, c.Count)
	}
	b.WriteString("\n")

	b.WriteString("## Warnings\n")
	if len(r.Warnings) == 0 {
		b.WriteString("No warnings.\n")
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "- [%s] #%d %s %s: %s\n", w.Kind, w.Index, w.ID, w.Field, w.Message)
	}

	return b.String()
}

// EncodeJSON renders the report as indented JSON.
func EncodeJSON(r model.ChangeReport) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return nil, eris.Wrap(err, "report: encode json")
	}
	return buf.Bytes(), nil
}

// BuildXLSX lays the report out as a workbook with one sheet per section.
func BuildXLSX(r model.ChangeReport) (*xlsx.File, error) {
	f := xlsx.NewFile()

	sheets := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"Summary", []string{"Metric", "Count"}, [][]string{
			{"Input", strconv.Itoa(r.Counts.Input)},
			{"Output", strconv.Itoa(r.Counts.Output)},
			{"Reclassified", strconv.Itoa(r.Counts.Reclassified)},
			{"Removed", strconv.Itoa(r.Counts.Removed)},
			{"Artifacts", strconv.Itoa(r.Counts.Artifacts)},
			{"Duplicates", strconv.Itoa(r.Counts.Duplicates)},
			{"Warnings", strconv.Itoa(r.Counts.Warnings)},
		}},
		{"Reclassified", []string{"ID", "Name", "From", "To", "Source", "Keyword"}, nil},
		{"Removed", []string{"ID", "Name", "Kind", "Reason"}, nil},
		{"Duplicates", []string{"Kept ID", "Kept Name", "Dropped ID", "Dropped Name", "Match", "Similarity"}, nil},
		{"Categories", []string{"Category", "Count"}, nil},
		{"Warnings", []string{"Kind", "Index", "ID", "Field", "Message"}, nil},
	}
	for _, rc := range r.Reclassified {
		sheets[1].rows = append(sheets[1].rows, []string{rc.ID, rc.Name, rc.From, rc.To, string(rc.Source), rc.Keyword})
	}
	for _, rm := range r.Removed {
		sheets[2].rows = append(sheets[2].rows, []string{rm.ID, rm.Name, string(rm.Kind), rm.Reason})
	}
	for _, d := range r.Duplicates {
		sheets[3].rows = append(sheets[3].rows, []string{
			d.KeptID, d.KeptName, d.DroppedID, d.DroppedName, string(d.Match), strconv.FormatFloat(d.Similarity, 'f', 3, 64),
		})
	}
	for _, c := range r.Categories {
		sheets[4].rows = append(sheets[4].rows, []string{c.Category, strconv.Itoa(c.Count)})
	}
	for _, w := range r.Warnings {
		sheets[5].rows = append(sheets[5].rows, []string{string(w.Kind), strconv.Itoa(w.Index), w.ID, w.Field, w.Message})
	}

	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		if err != nil {
			return nil, eris.Wrapf(err, "report: add sheet %s", s.name)
		}
		addRow(sheet, s.header)
		for _, row := range s.rows {
			addRow(sheet, row)
		}
	}
	return f, nil
}

func addRow(sheet *xlsx.Sheet, cells []string) {
	row := sheet.AddRow()
	for _, v := range cells {
		row.AddCell().SetString(v)
	}
}

// EncodeReport renders the change report in the format chosen by the
// extension of path: .json, .xlsx, anything else is text.
func EncodeReport(path string, r model.ChangeReport) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return EncodeJSON(r)
	case ".xlsx":
		f, err := BuildXLSX(r)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := f.Write(&buf); err != nil {
			return nil, eris.Wrap(err, "report: encode xlsx")
		}
		return buf.Bytes(), nil
	default:
		return []byte(FormatText(r)), nil
	}
}

// StagedReport is a report written to a temp file next to its destination,
// waiting for Commit or Discard.
type StagedReport struct {
	fs   afero.Fs
	tmp  string
	path string
}

// StageReport encodes r and writes it to a temp file in path's directory.
// Any problem with the destination directory surfaces here, before the
// catalog is touched.
func StageReport(fs afero.Fs, path string, r model.ChangeReport) (*StagedReport, error) {
	data, err := EncodeReport(path, r)
	if err != nil {
		return nil, err
	}

	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	f, err := afero.TempFile(fs, dir, "."+base+".*.tmp")
	if err != nil {
		return nil, eris.Wrapf(err, "report: write %s", path)
	}
	staged := &StagedReport{fs: fs, tmp: f.Name(), path: path}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		staged.Discard()
		return nil, eris.Wrapf(err, "report: write %s", path)
	}
	if err := f.Close(); err != nil {
		staged.Discard()
		return nil, eris.Wrapf(err, "report: write %s", path)
	}
	return staged, nil
}

// Commit moves the staged report to its destination.
func (s *StagedReport) Commit() error {
	if err := s.fs.Rename(s.tmp, s.path); err != nil {
		s.Discard()
		return eris.Wrapf(err, "report: rename to %s", s.path)
	}
	return nil
}

// Discard removes the staged temp file.
func (s *StagedReport) Discard() {
	if err := s.fs.Remove(s.tmp); err != nil && !os.IsNotExist(err) {
		zap.L().Warn("report: remove temp file", zap.String("path", s.tmp), zap.Error(err))
	}
}

// WriteReport writes the change report to path.
func WriteReport(fs afero.Fs, path string, r model.ChangeReport) error {
	staged, err := StageReport(fs, path, r)
	if err != nil {
		return err
	}
	return staged.Commit()
}
