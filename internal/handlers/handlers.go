package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/Brownie44l1/food-calorie-api/internal/archive"
	"github.com/Brownie44l1/food-calorie-api/internal/calories"
	"github.com/Brownie44l1/food-calorie-api/internal/history"
	"github.com/Brownie44l1/food-calorie-api/internal/metrics"
	"github.com/Brownie44l1/food-calorie-api/internal/model"
)

const (
	defaultMaxUpload    = 10 << 20
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100

	welcomeMessage = "Selamat datang di API Deteksi Kalori! Endpoint untuk prediksi ada di /predict/"
)

// Detector finds food items in a decoded image.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]model.Detection, error)
}

// Options wires the handler's collaborators. Only Detector is needed for
// predictions; a nil Detector means the model failed to load. Store,
// Archiver and Metrics are optional.
type Options struct {
	Detector       Detector
	Table          calories.Table
	Store          history.Store
	Archiver       archive.Archiver
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	MaxUploadBytes int64
}

type Handler struct {
	detector  Detector
	table     calories.Table
	store     history.Store
	archiver  archive.Archiver
	metrics   *metrics.Metrics
	logger    *slog.Logger
	maxUpload int64
	now       func() time.Time
	newID     func() string
}

func NewHandler(opts Options) *Handler {
	h := &Handler{
		detector:  opts.Detector,
		table:     opts.Table,
		store:     opts.Store,
		archiver:  opts.Archiver,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		maxUpload: opts.MaxUploadBytes,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if h.table == nil {
		h.table = calories.Default()
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.maxUpload <= 0 {
		h.maxUpload = defaultMaxUpload
	}
	return h
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "Endpoint tidak ditemukan")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: welcomeMessage})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:      "healthy",
		ModelLoaded: h.detector != nil,
	})
}

func (h *Handler) Foods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.table.Foods())
}

// Predict accepts a multipart upload in field "file" (or "image"), detects
// the food in it and returns the items with their calorie estimate.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.detector == nil {
		writeError(w, http.StatusServiceUnavailable, "Model tidak berhasil dimuat, tidak dapat melakukan prediksi.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("Ukuran file melebihi batas %d MB", h.maxUpload>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "Gagal membaca form upload")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile("image")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Tidak ada file yang diunggah. Gunakan 'file' sebagai nama field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Gagal membaca file yang diunggah")
		return
	}

	h.logger.Debug("received upload", "filename", header.Filename, "bytes", len(data))

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("File yang diunggah bukan format gambar yang valid: %v", err))
		return
	}

	start := time.Now()
	detections, err := h.detector.Detect(r.Context(), img)
	elapsed := time.Since(start)
	if err != nil {
		h.logger.Error("prediction failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Prediksi gagal")
		return
	}

	summary := h.table.Summarize(detections)
	if h.metrics != nil {
		h.metrics.ObserveInference(elapsed)
		for _, det := range detections {
			h.metrics.CountDetection(det.Label)
		}
	}

	id := h.newID()
	imageURL := h.archiveUpload(r.Context(), id, header.Filename, data)
	h.record(r.Context(), id, header.Filename, imageURL, summary)

	h.logger.Info("prediction served",
		"id", id,
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
		"detections", len(detections),
		"total_kcal", summary.TotalCalories,
		"inference", elapsed)

	writeJSON(w, http.StatusOK, PredictionResponse{
		ID:            id,
		Success:       true,
		Detections:    summary.Items,
		TotalCalories: summary.TotalCalories,
	})
}

// archiveUpload stores the raw upload when archiving is enabled. Failures are
// logged and leave the URL empty.
func (h *Handler) archiveUpload(ctx context.Context, id, filename string, data []byte) string {
	if h.archiver == nil {
		return ""
	}
	url, err := h.archiver.Archive(ctx, archive.ObjectName(id, filename), http.DetectContentType(data), data)
	if err != nil {
		h.logger.Warn("failed to archive upload", "id", id, "error", err)
		return ""
	}
	return url
}

func (h *Handler) record(ctx context.Context, id, filename, imageURL string, summary calories.Summary) {
	if h.store == nil {
		return
	}

	rec := &history.Record{
		ID:            id,
		Filename:      filename,
		ImageURL:      imageURL,
		TotalCalories: summary.TotalCalories,
		CreatedAt:     h.now().UTC(),
		Items:         make([]history.Item, 0, len(summary.Items)),
	}
	for _, item := range summary.Items {
		rec.Items = append(rec.Items, history.Item{
			Label:           item.Label,
			Confidence:      item.Confidence,
			CaloriesPer100g: item.CaloriesPer100g,
		})
	}

	if err := h.store.Save(ctx, rec); err != nil {
		h.logger.Warn("failed to save prediction history", "id", id, "error", err)
	}
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if h.store == nil {
		writeError(w, http.StatusNotFound, "Riwayat prediksi tidak diaktifkan")
		return
	}

	limit := atoiDefault(r.URL.Query().Get("limit"), defaultHistoryLimit)
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	records, err := h.store.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list history", "error", err)
		writeError(w, http.StatusInternalServerError, "Gagal membaca riwayat prediksi")
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) HistoryItem(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "Riwayat prediksi tidak diaktifkan")
		return
	}

	rec, err := h.store.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Prediksi tidak ditemukan")
		return
	}
	if err != nil {
		h.logger.Error("failed to read history", "id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "Gagal membaca riwayat prediksi")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// atoiDefault parses a positive integer, returning def otherwise.
func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
