// Package httpapi serves the plain HTTP surface next to the Connect
// services: the menu analysis endpoint, a QR code for the ordering link,
// health checks and the static frontend.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mmynk/lunchtab/internal/analysis"
)

const maxUploadBytes = 16 << 20

// Handler serves the REST endpoints.
type Handler struct {
	// Analyzer holds the server-side provider key. Nil means the key is not
	// configured and analysis requests fail with a configuration error.
	Analyzer  analysis.Analyzer
	QR        QRGenerator
	PublicURL string
}

// NewHandler creates a Handler.
func NewHandler(analyzer analysis.Analyzer, qr QRGenerator, publicURL string) *Handler {
	return &Handler{Analyzer: analyzer, QR: qr, PublicURL: publicURL}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/healthz", h.healthCheck).Methods("GET")
	// Method is checked in the handler so wrong methods get a JSON body.
	r.HandleFunc("/api/analyze-menu", h.analyzeMenu)
	r.HandleFunc("/api/menu/qrcode", h.menuQRCode).Methods("GET")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"service":   "lunchtab",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type analyzeRequest struct {
	Image string `json:"image"`
}

// analyzeMenu accepts {"image": "<base64 jpeg>"} and answers with the
// extracted restaurant and items.
func (h *Handler) analyzeMenu(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUploadBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Image too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Image == "" {
		writeError(w, http.StatusBadRequest, "No image provided")
		return
	}

	if h.Analyzer == nil {
		slog.Error("Analysis requested but GEMINI_API_KEY is missing")
		writeError(w, http.StatusInternalServerError, "Server configuration error")
		return
	}

	ext, err := h.Analyzer.Analyze(r.Context(), req.Image)
	if err != nil {
		slog.Error("AI analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ext.Items == nil {
		ext.Items = []analysis.ExtractedItem{}
	}
	writeJSON(w, http.StatusOK, ext)
}

// menuQRCode renders the ordering link (PublicURL unless ?url= is given) as
// a PNG so people can scan it off a shared screen.
func (h *Handler) menuQRCode(w http.ResponseWriter, r *http.Request) {
	link := r.URL.Query().Get("url")
	if link == "" {
		link = h.PublicURL
	}
	if link == "" {
		writeError(w, http.StatusBadRequest, "No url provided")
		return
	}

	size := 256
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 1024 {
			writeError(w, http.StatusBadRequest, "size must be between 64 and 1024")
			return
		}
		size = n
	}

	png, err := h.QR.Generate(link, size)
	if err != nil {
		slog.Error("Failed to generate QR code", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(png)
}
