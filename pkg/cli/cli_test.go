package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestOutput_JSON(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"name": "test", "value": 123}
	if err := Output(data, OutputOptions{Format: FormatJSON, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	var result map[string]any
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON output: %v", err)
	}
	if result["name"] != "test" {
		t.Errorf("name = %v, want %q", result["name"], "test")
	}
}

func TestOutput_YAML(t *testing.T) {
	var buf bytes.Buffer
	data := map[string]any{"name": "test", "value": 123}
	if err := Output(data, OutputOptions{Format: FormatYAML, Writer: &buf}); err != nil {
		t.Fatalf("Output error: %v", err)
	}
	if !strings.Contains(buf.String(), "name: test") {
		t.Errorf("Output should contain 'name: test', got: %s", buf.String())
	}
}

func TestOutput_Raw(t *testing.T) {
	var buf bytes.Buffer
	if err := Output("<svg/>", OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "<svg/>" {
		t.Errorf("raw output = %q", buf.String())
	}
}

func TestOutput_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Output([]int{1, 2}, OutputOptions{Format: FormatJSON, File: path}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "1") {
		t.Errorf("file content = %q", data)
	}
}

func TestOutput_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xml")
	if err := Output(1, OutputOptions{Format: "xml", File: path}); err == nil {
		t.Error("unsupported format accepted")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("output file created for an unsupported format")
	}
}

type grid [][]string

func (g grid) Table() Table {
	return Table{Styles: NewStyles(DefaultTheme), Headers: []string{"a", "b"}, Rows: g}
}

func TestOutput_Table(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(grid{{"x1", "y1"}}, OutputOptions{Format: FormatTable, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "x1") {
		t.Errorf("table output = %q", buf.String())
	}

	err := Output([]int{1}, OutputOptions{Format: FormatTable, Writer: &buf})
	if !errors.Is(err, ErrNoTable) {
		t.Errorf("err = %v, want ErrNoTable", err)
	}
}

func TestOutput_RawWriterTo(t *testing.T) {
	var buf bytes.Buffer
	if err := Output(strings.NewReader("<svg/>"), OutputOptions{Format: FormatRaw, Writer: &buf}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "<svg/>" {
		t.Errorf("raw output = %q", buf.String())
	}
}

func TestTableRender(t *testing.T) {
	tbl := Table{
		Styles:  NewStyles(DefaultTheme),
		Title:   "Schedule",
		Headers: []string{"#", "pitch", "at ms"},
		Rows: [][]string{
			{"0", "D4", "0"},
			{"1", "E4", "500"},
		},
		Marked: func(row int) bool { return row == 1 },
	}
	out := tbl.Render()
	for _, want := range []string{"Schedule", "pitch", "D4", "E4", "500"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
}

func TestPaths(t *testing.T) {
	p := &Paths{AppName: "dantranh", ConfigDir: t.TempDir()}
	if got := p.ConfigFile(); got != filepath.Join(p.ConfigDir, "dantranh", "config.yaml") {
		t.Errorf("ConfigFile() = %s", got)
	}
	if err := p.EnsureAppDir(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(p.AppDir()); err != nil {
		t.Errorf("app dir not created: %v", err)
	}
}
