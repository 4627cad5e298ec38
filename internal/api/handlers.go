package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/subtitle-kit/subkit/internal/ffmpeg"
	"github.com/subtitle-kit/subkit/internal/job"
	"github.com/subtitle-kit/subkit/internal/whisper"
)

// maxUploadBytes bounds a single uploaded file (media can be large).
const maxUploadBytes = 4 << 30

// SubmitTranscribe accepts a media upload plus recognition options and
// enqueues a transcription job.
func (s *Server) SubmitTranscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	mediaPath, name, err := s.saveUpload(r, "media")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := whisper.DefaultOptions()
	if v := r.FormValue("model_size"); v != "" {
		opts.ModelSize = v
	}
	if v := r.FormValue("language"); v != "" {
		opts.Language = v
	}
	if v := r.FormValue("device"); v != "" {
		opts.Device = v
	}
	if v := r.FormValue("compute_type"); v != "" {
		opts.ComputeType = v
	}
	opts.VADFilter = r.FormValue("no_vad") == ""

	engine := r.FormValue("engine")
	if engine == "" {
		engine = s.cfg.Whisper.Engine
	}

	j, err := s.queue.Enqueue(job.TypeTranscribe, name, transcribeParams{
		MediaPath: mediaPath,
		Engine:    engine,
		Options:   opts,
	})
	if err != nil {
		jsonError(w, "enqueue: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, j, http.StatusAccepted)
}

// SubmitBurn accepts a video and a subtitle upload plus style options
// and enqueues a burn job.
func (s *Server) SubmitBurn(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	videoPath, name, err := s.saveUpload(r, "video")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	subtitlePath, _, err := s.saveUpload(r, "subtitle")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	j, err := s.queue.Enqueue(job.TypeBurn, name, burnParams{
		VideoPath:    videoPath,
		SubtitlePath: subtitlePath,
		OutputPath:   s.outputPath(uuid.New().String(), burnOutputName(name)),
		Style:        parseStyle(r),
	})
	if err != nil {
		jsonError(w, "enqueue: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, j, http.StatusAccepted)
}

// SubmitTranslate accepts a subtitle upload plus a target language and
// enqueues a translation job.
func (s *Server) SubmitTranslate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		jsonError(w, "invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	subtitlePath, name, err := s.saveUpload(r, "subtitle")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	targetLang := strings.TrimSpace(r.FormValue("target_lang"))
	if targetLang == "" {
		jsonError(w, "target_lang is required", http.StatusBadRequest)
		return
	}

	j, err := s.queue.Enqueue(job.TypeTranslate, name, translateParams{
		SubtitlePath: subtitlePath,
		TargetLang:   targetLang,
	})
	if err != nil {
		jsonError(w, "enqueue: "+err.Error(), http.StatusInternalServerError)
		return
	}
	jsonResponse(w, j, http.StatusAccepted)
}

// ListJobs returns all jobs, newest first.
func (s *Server) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.queue.List()
	if jobs == nil {
		jobs = []*job.Job{}
	}
	jsonResponse(w, jobs, http.StatusOK)
}

// GetJob returns a single job by ID.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	j, ok := s.queue.Get(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	jsonResponse(w, j, http.StatusOK)
}

// CancelJob cancels a pending or running job.
func (s *Server) CancelJob(w http.ResponseWriter, r *http.Request) {
	if err := s.queue.Cancel(chi.URLParam(r, "id")); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DownloadResult streams the artifact of a completed job.
func (s *Server) DownloadResult(w http.ResponseWriter, r *http.Request) {
	j, ok := s.queue.Get(chi.URLParam(r, "id"))
	if !ok {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	if j.Status != job.StatusCompleted || len(j.Result) == 0 {
		jsonError(w, "job has no result", http.StatusConflict)
		return
	}

	var result jobResult
	if err := json.Unmarshal(j.Result, &result); err != nil || result.OutputPath == "" {
		jsonError(w, "job has no result", http.StatusConflict)
		return
	}

	// Artifacts always live under the data dir; refuse anything else.
	absData, _ := filepath.Abs(s.dataDir)
	absOut, _ := filepath.Abs(result.OutputPath)
	if !strings.HasPrefix(absOut, absData+string(filepath.Separator)) {
		jsonError(w, "invalid artifact path", http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%s", strconv.Quote(filepath.Base(result.OutputPath))))
	http.ServeFile(w, r, absOut)
}

// saveUpload copies a multipart file into the uploads directory and
// returns the stored path plus the original filename.
func (s *Server) saveUpload(r *http.Request, field string) (string, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", "", fmt.Errorf("missing %s file", field)
	}
	defer file.Close()

	name := sanitizeFilename(header.Filename)
	dir := filepath.Join(s.dataDir, "uploads", uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := writeUpload(path, file); err != nil {
		return "", "", err
	}
	return path, header.Filename, nil
}

func writeUpload(path string, src multipart.File) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return fmt.Errorf("store upload: %w", err)
	}
	return nil
}

// sanitizeFilename strips any path components from a client-supplied
// filename.
func sanitizeFilename(name string) string {
	name = filepath.Base(filepath.Clean(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "upload"
	}
	return name
}

func parseStyle(r *http.Request) ffmpeg.BurnStyle {
	var style ffmpeg.BurnStyle
	style.FontName = r.FormValue("font_name")
	style.Colour = r.FormValue("colour")
	style.ForceStyle = r.FormValue("force_style")
	if v, err := strconv.Atoi(r.FormValue("font_size")); err == nil {
		style.FontSize = v
	}
	if v, err := strconv.Atoi(r.FormValue("outline")); err == nil {
		style.Outline = v
	}
	return style
}

func burnOutputName(videoName string) string {
	ext := filepath.Ext(videoName)
	if ext == "" {
		ext = ".mp4"
	}
	return replaceExt(sanitizeFilename(videoName), "") + "_sub" + ext
}

func jsonResponse(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	jsonResponse(w, map[string]string{"error": msg}, status)
}
