package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// PresentationFile is the HTML page the report server serves at "/".
const PresentationFile = "presentation.html"

var ErrNoReports = errors.New("no reports found")

// Files lists the paths written by WriteAll.
type Files struct {
	JSON         string
	Text         string
	Markdown     string
	Presentation string
}

// WriteAll writes report_<session>.json, .txt and .md plus the presentation
// page into dir.
func WriteAll(dir string, r Report) (Files, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Files{}, err
	}
	base := filepath.Join(dir, "report_"+r.SessionID)
	files := Files{
		JSON:         base + ".json",
		Text:         base + ".txt",
		Markdown:     base + ".md",
		Presentation: filepath.Join(dir, PresentationFile),
	}
	for _, out := range []struct {
		path  string
		write func(io.Writer, Report) error
	}{
		{files.JSON, WriteJSON},
		{files.Text, WriteText},
		{files.Markdown, WriteMarkdown},
		{files.Presentation, WriteHTML},
	} {
		if err := writeFile(out.path, r, out.write); err != nil {
			return files, err
		}
	}
	return files, nil
}

func writeFile(path string, r Report, write func(io.Writer, Report) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := write(f, r); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadLatest reads the most recently modified report_*.json in dir.
func LoadLatest(dir string) (Report, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "report_*.json"))
	if err != nil {
		return Report{}, err
	}
	if len(matches) == 0 {
		return Report{}, fmt.Errorf("%w in %s", ErrNoReports, dir)
	}
	type candidate struct {
		path string
		mod  int64
	}
	candidates := make([]candidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			return Report{}, err
		}
		candidates = append(candidates, candidate{m, info.ModTime().UnixNano()})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].mod != candidates[j].mod {
			return candidates[i].mod > candidates[j].mod
		}
		return candidates[i].path > candidates[j].path
	})
	return Load(candidates[0].path)
}

// Load reads one JSON report.
func Load(path string) (Report, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return Report{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
