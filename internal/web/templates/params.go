package templates

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/smarttools/internal/core"
)

// ToolParams configures a tool page.
type ToolParams struct {
	Def                core.OperationDefinition
	DefaultRowsPerFile int
	MaxFileSize        string // human readable
}

// FileItem is one row of the uploaded file list.
type FileItem struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Size     string `json:"size"`
	Bytes    int64  `json:"bytes"`
}

// FileListParams is the uploaded batch in display order.
type FileListParams struct {
	Op        string
	Files     []FileItem
	TotalSize string
	Reorder   bool
	Preview   *core.TablePreview
}

// ResultParams describes a finished job.
type ResultParams struct {
	Summary     string
	Notes       []string
	Filename    string
	Size        string
	DownloadURL string
}

func extensionList(def core.OperationDefinition) string {
	return strings.Join(def.Extensions, " / ")
}

func acceptList(def core.OperationDefinition) string {
	return strings.Join(def.Extensions, ",")
}

func previewText(pv core.TablePreview) string {
	s := fmt.Sprintf("%d rows × %d columns", pv.Rows, pv.Columns)
	if pv.Parts > 0 {
		s += fmt.Sprintf(", %d part(s)", pv.Parts)
	}
	return s
}
