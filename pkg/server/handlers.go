package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"

	"github.com/DrPeryCox/pres-gen-new/pkg/deck"
	"github.com/DrPeryCox/pres-gen-new/pkg/errs"
	"github.com/DrPeryCox/pres-gen-new/pkg/jobs"
	"github.com/DrPeryCox/pres-gen-new/pkg/logger"
)

const (
	pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

	// Uploads carry a speaker video, so allow large request bodies.
	maxUploadBytes = 512 << 20
)

type statusResponse struct {
	ID          string      `json:"id"`
	Status      jobs.Status `json:"status"`
	Detail      string      `json:"detail,omitempty"`
	Filename    string      `json:"filename,omitempty"`
	DownloadURL string      `json:"download_url,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleGeneratePresentation turns the posted deck definition into a .pptx
// file and streams it back in the same request.
func (s *Server) handleGeneratePresentation(w http.ResponseWriter, r *http.Request) {
	payload := r.FormValue("presentation_json")
	if payload == "" {
		writeError(w, errs.New(errs.CodeInvalidParameter, "server", "missing form field presentation_json", nil))
		return
	}

	d, err := deck.ParseDeck([]byte(payload))
	if err != nil {
		writeError(w, err)
		return
	}

	file, err := s.generator.Generate(d)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", pptxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="presentation.pptx"`)
	if _, err := io.Copy(w, file); err != nil {
		logger.Warnf("failed to stream presentation: %v", err)
	}
}

// handleGenerateVideo accepts the timing JSON, the slide PDF and the speaker
// video, queues a composition job and redirects to its status page.
func (s *Server) handleGenerateVideo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, errs.New(errs.CodeInvalidParameter, "server", "invalid multipart request", err))
		return
	}

	job := jobs.NewJob()
	uploads := []struct {
		field  string
		suffix string
	}{
		{"json_file", "timing.json"},
		{"presentation_file", "presentation.pdf"},
		{"video_file", "video.mp4"},
	}

	var saved []string
	for _, u := range uploads {
		path, err := s.saveUpload(r, u.field, fmt.Sprintf("%s_%s", job.ID, u.suffix))
		if err != nil {
			removeFiles(saved)
			writeError(w, err)
			return
		}
		saved = append(saved, path)
	}

	job.InputPaths = saved
	job.ResultPath = filepath.Join(s.uploadsDir, fmt.Sprintf("%s_final.mp4", job.ID))
	job.ResultFilename = "final_presentation.mp4"

	if err := s.pool.Enqueue(job); err != nil {
		removeFiles(saved)
		writeError(w, err)
		return
	}

	logger.Infof("queued video job %s", job.ID)
	http.Redirect(w, r, "/video-status/"+job.ID, http.StatusSeeOther)
}

func (s *Server) handleVideoStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := s.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := statusResponse{
		ID:     job.ID,
		Status: job.Status,
		Detail: job.Detail,
	}
	if job.Status == jobs.StatusSuccess {
		resp.Filename = job.ResultFilename
		resp.DownloadURL = "/download-video/" + job.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownloadVideo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	job, err := s.store.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if job.Status != jobs.StatusSuccess {
		writeError(w, errs.New(errs.CodeJobNotReady, "server",
			fmt.Sprintf("job %s is %s", id, jobs.Describe(job)), nil))
		return
	}
	if _, err := os.Stat(job.ResultPath); err != nil {
		writeError(w, errs.New(errs.CodeNotFound, "server",
			fmt.Sprintf("result for job %s no longer available", id), err))
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", job.ResultFilename))
	http.ServeFile(w, r, job.ResultPath)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// saveUpload copies one multipart file into the uploads directory.
func (s *Server) saveUpload(r *http.Request, field, name string) (string, error) {
	src, _, err := r.FormFile(field)
	if err != nil {
		return "", errs.New(errs.CodeInvalidParameter, "server",
			fmt.Sprintf("missing upload field %s", field), err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return "", errs.New(errs.CodeIoError, "server", "failed to create uploads directory", err)
	}

	path := filepath.Join(s.uploadsDir, name)
	if err := copyToFile(src, path); err != nil {
		return "", err
	}
	return path, nil
}

func copyToFile(src multipart.File, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return errs.New(errs.CodeIoError, "server", fmt.Sprintf("failed to create %s", path), err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return errs.New(errs.CodeIoError, "server", fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

func removeFiles(paths []string) {
	for _, path := range paths {
		_ = os.Remove(path)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Warnf("failed to encode response: %v", err)
	}
}

// writeError maps error codes onto HTTP statuses and renders a JSON body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errs.CodeOf(err) {
	case errs.CodeInvalidParameter, errs.CodeValidationFailed, errs.CodeDeckInvalid:
		status = http.StatusBadRequest
	case errs.CodeNotFound, errs.CodeJobNotReady:
		status = http.StatusNotFound
	case errs.CodeInvalidState:
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logger.Errorf("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
