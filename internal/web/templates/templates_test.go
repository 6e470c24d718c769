package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/smarttools/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	if err := c.Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestFileList_EscapesNames(t *testing.T) {
	out := render(t, FileList(FileListParams{
		Op:      "pdf",
		Reorder: true,
		Files: []FileItem{
			{Position: 0, Name: `<script>alert(1)</script>.pdf`, Size: "1.0 kB"},
			{Position: 1, Name: "b.pdf", Size: "2.0 kB"},
		},
		TotalSize: "3.0 kB",
	}))

	if strings.Contains(out, "<script>") {
		t.Error("file name was not escaped")
	}
	if !strings.Contains(out, `data-move="down" data-position="0"`) {
		t.Error("first file should have a move-down button")
	}
	if strings.Contains(out, `data-move="up" data-position="0"`) {
		t.Error("first file should not have a move-up button")
	}
}

func TestFileList_Preview(t *testing.T) {
	out := render(t, FileList(FileListParams{
		Op:        "split",
		Files:     []FileItem{{Name: "big.csv", Size: "4 kB"}},
		TotalSize: "4 kB",
		Preview:   &core.TablePreview{Rows: 250, Columns: 4, Parts: 3},
	}))

	if !strings.Contains(out, "250 rows × 4 columns, 3 part(s)") {
		t.Errorf("preview missing: %s", out)
	}
	if strings.Contains(out, "data-move") {
		t.Error("single-file tools should not offer reordering")
	}
}

func TestToolPage_SplitOptions(t *testing.T) {
	def, _ := core.Get(core.OpSplit)
	out := render(t, ToolPage(ToolParams{Def: def, DefaultRowsPerFile: 100, MaxFileSize: "100 MB"}))

	if !strings.Contains(out, `name="rows_per_file" min="1" step="1" value="100"`) {
		t.Error("split page should offer rows per file with default 100")
	}
	if strings.Contains(out, " multiple") {
		t.Error("split takes a single file")
	}
	if !strings.Contains(out, "<title>File Splitter · Smart Tools</title>") {
		t.Error("tool page should render inside the layout")
	}
}

func TestToolPage_MergeAcceptsOneOrMore(t *testing.T) {
	def, _ := core.Get(core.OpMergePDF)
	out := render(t, ToolPage(ToolParams{Def: def, MaxFileSize: "100 MB"}))

	if def.MinFiles != 1 {
		t.Fatalf("MinFiles = %d, want 1", def.MinFiles)
	}
	if !strings.Contains(out, "Choose one or more") || !strings.Contains(out, " multiple required") {
		t.Errorf("merge uploader = %s", out)
	}
	if strings.Contains(out, `name="strict"`) {
		t.Error("PDF merging has no column policy")
	}
}

func TestResultPanel_EscapesLinkAttributes(t *testing.T) {
	tests := []struct {
		name      string
		params    ResultParams
		want      []string
		forbidden []string
	}{
		{
			name: "quote in filename stays inside download attribute",
			params: ResultParams{
				Summary:     "Merged!",
				Filename:    `a" onclick="alert(1).csv`,
				Size:        "1 kB",
				DownloadURL: "/api/jobs/j1/download",
			},
			want:      []string{`href="/api/jobs/j1/download"`, `download="a&#34; onclick=&#34;alert(1).csv"`},
			forbidden: []string{`onclick="alert`},
		},
		{
			name: "script url is sanitized",
			params: ResultParams{
				Summary:     "Merged!",
				Filename:    "merged.pdf",
				DownloadURL: "javascript:alert(1)",
			},
			want:      []string{string(templ.FailedSanitizationURL)},
			forbidden: []string{`href="javascript:`},
		},
		{
			name: "notes are escaped",
			params: ResultParams{
				Summary:     "<b>done</b>",
				Notes:       []string{"<i>note</i>"},
				Filename:    "merged.csv",
				DownloadURL: "/api/jobs/j2/download",
			},
			want:      []string{"&lt;b&gt;done&lt;/b&gt;", "&lt;i&gt;note&lt;/i&gt;"},
			forbidden: []string{"<b>", "<i>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, ResultPanel(tt.params))
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q in %s", w, out)
				}
			}
			for _, f := range tt.forbidden {
				if strings.Contains(out, f) {
					t.Errorf("unexpected %q in %s", f, out)
				}
			}
		})
	}
}

func TestDashboardPage(t *testing.T) {
	out := render(t, DashboardPage(core.All(), nil))

	if !strings.HasPrefix(out, "<!doctype html>") {
		t.Errorf("page should start with the doctype: %.40s", out)
	}
	if !strings.Contains(out, `href="/tool/split"`) {
		t.Errorf("dashboard should link the splitter: %s", out)
	}
	if !strings.Contains(out, "Nothing yet") {
		t.Error("empty history should render inside the dashboard")
	}
}

func TestHistoryList(t *testing.T) {
	if out := render(t, HistoryList(nil)); !strings.Contains(out, "Nothing yet") {
		t.Errorf("empty history = %s", out)
	}

	out := render(t, HistoryList([]core.HistoryEntry{{Tool: "PDF Merger", Output: "merged.pdf", Count: 3}}))
	if !strings.Contains(out, "PDF Merger") || !strings.Contains(out, "merged.pdf") {
		t.Errorf("history = %s", out)
	}
}

func TestErrorAlert(t *testing.T) {
	out := render(t, ErrorAlert("No files were uploaded", "Upload files before running the tool", "FILE004"))
	if !strings.Contains(out, "Code: FILE004") || !strings.Contains(out, `role="alert"`) {
		t.Errorf("alert = %s", out)
	}
}
