package web

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/smarttools/internal/core"
	"github.com/JonMunkholm/smarttools/internal/logging"
	"github.com/JonMunkholm/smarttools/internal/web/templates"
)

// multipartMemory is how much of an upload is held in memory before the
// rest spills to temporary files.
const multipartMemory = 32 << 20

var (
	errFileTooLarge  = errors.New("file too large")
	errTooManyFiles  = errors.New("too many files")
	errNoFileInForm  = fmt.Errorf("no file provided: %w", core.ErrNoInputs)
	errInvalidOption = errors.New("invalid option")
)

// fileListResponse is the JSON form of the ordered batch.
type fileListResponse struct {
	Op        string               `json:"op"`
	Files     []templates.FileItem `json:"files"`
	TotalSize string               `json:"total_size"`
	Preview   *core.TablePreview   `json:"preview,omitempty"`
}

// handleUploadFiles replaces the tool's batch with the uploaded files and
// returns them in display order.
func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	def, err := core.Lookup(chi.URLParam(r, "op"))
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	limit := s.cfg.Upload.MaxFileSize*int64(s.cfg.Upload.MaxFiles) + multipartMemory
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(w, r, fmt.Errorf("parse upload: %w", err), statusFor(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		respondError(w, r, errNoFileInForm, http.StatusBadRequest)
		return
	}
	if len(headers) > s.cfg.Upload.MaxFiles {
		respondError(w, r, fmt.Errorf("%d files, limit %d: %w", len(headers), s.cfg.Upload.MaxFiles, errTooManyFiles), http.StatusRequestEntityTooLarge)
		return
	}

	files := make([]core.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := s.readUpload(fh)
		if err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
		files = append(files, f)
	}

	if err := def.CheckBatch(files); err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	var preview *core.TablePreview
	if !def.MultiFile() && def.Kind != core.OpMergePDF {
		rows := 0
		if def.Kind == core.OpSplit {
			rows = s.rowsPerFile(r.FormValue("rows_per_file"))
		}
		preview, err = core.PreviewTable(files[0], rows)
		if err != nil {
			respondError(w, r, err, statusFor(err))
			return
		}
	}

	sess := s.session(w, r)
	ordered := sess.SetBatch(def.Kind, files)

	logging.FromContext(r.Context()).Info("batch uploaded",
		"op", def.Kind.Key(),
		"files", len(files),
		"bytes", core.TotalSize(files),
	)

	s.respondFileList(w, r, def, ordered, preview)
}

// readUpload reads one multipart file, enforcing the per-file size limit.
func (s *Server) readUpload(fh *multipart.FileHeader) (core.UploadedFile, error) {
	if fh.Size > s.cfg.Upload.MaxFileSize {
		return core.UploadedFile{}, fmt.Errorf("%s is %s, limit %s: %w", fh.Filename,
			humanize.Bytes(uint64(fh.Size)), humanize.Bytes(uint64(s.cfg.Upload.MaxFileSize)), errFileTooLarge)
	}

	f, err := fh.Open()
	if err != nil {
		return core.UploadedFile{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return core.UploadedFile{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return core.UploadedFile{Name: fh.Filename, Data: data}, nil
}

// handleMove swaps a file with its neighbour.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	def, err := core.Lookup(chi.URLParam(r, "op"))
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	position, err := strconv.Atoi(r.FormValue("position"))
	if err != nil {
		respondError(w, r, fmt.Errorf("position %q: %w", r.FormValue("position"), core.ErrOrderPosition), http.StatusBadRequest)
		return
	}
	dir, err := core.ParseDirection(r.FormValue("direction"))
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: %w", errInvalidOption, err), http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	ordered, err := sess.Move(def.Kind, position, dir)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, core.ErrNoInputs) {
			status = http.StatusConflict
		}
		respondError(w, r, err, status)
		return
	}

	s.respondFileList(w, r, def, ordered, nil)
}

func (s *Server) respondFileList(w http.ResponseWriter, r *http.Request, def core.OperationDefinition, files []core.UploadedFile, preview *core.TablePreview) {
	items := make([]templates.FileItem, len(files))
	for i, f := range files {
		items[i] = templates.FileItem{
			Position: i,
			Name:     f.Name,
			Size:     f.HumanSize(),
			Bytes:    f.Size(),
		}
	}
	total := humanize.Bytes(uint64(core.TotalSize(files)))

	respond(w, r, templates.FileList(templates.FileListParams{
		Op:        def.Kind.Key(),
		Files:     items,
		TotalSize: total,
		Reorder:   def.MultiFile(),
		Preview:   preview,
	}), fileListResponse{
		Op:        def.Kind.Key(),
		Files:     items,
		TotalSize: total,
		Preview:   preview,
	})
}

// handleRun starts the tool over the session's batch and returns the job id.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	def, err := core.Lookup(chi.URLParam(r, "op"))
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	opts, err := s.runOptions(r)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	sess := s.session(w, r)
	jobID, err := s.service.StartJob(r.Context(), sess, def.Kind, opts)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, core.ErrTooManyJobs) {
			w.Header().Set("Retry-After", "5")
		}
		respondError(w, r, err, status)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// runOptions reads rows_per_file and strict from the form. An empty
// rows_per_file uses the configured default.
func (s *Server) runOptions(r *http.Request) (core.Options, error) {
	var opts core.Options

	opts.RowsPerFile = s.cfg.Split.DefaultRowsPerFile
	if v := strings.TrimSpace(r.FormValue("rows_per_file")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return opts, fmt.Errorf("rows per file %q: %w", v, core.ErrInvalidChunkSize)
		}
		opts.RowsPerFile = n
	}

	if v := r.FormValue("strict"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil && v != "on" {
			return opts, fmt.Errorf("strict %q: %w", v, errInvalidOption)
		}
		opts.Strict = strict || v == "on"
	}
	return opts, nil
}

// rowsPerFile parses a preview's rows_per_file, falling back to the default.
func (s *Server) rowsPerFile(v string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
		return n
	}
	return s.cfg.Split.DefaultRowsPerFile
}

// handleExit leaves the open tool, discarding its batch and order.
func (s *Server) handleExit(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	sess.ExitTool()

	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
