package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/shaiso/Trinity/internal/engine"
	"github.com/shaiso/Trinity/internal/telemetry"
)

// Preview строит раскладку YAML без сохранения.
// POST /api/v1/preview
//
// Тело — YAML как есть, либо DefinitionRequest при
// Content-Type: application/json. Битый YAML — не ошибка запроса:
// ответ 200 с полем error и пустой раскладкой.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	text, ok := h.readDefinition(w, r)
	if !ok {
		return
	}

	Success(w, h.preview(text, telemetry.SourcePreview))
}

// PreviewVersion строит раскладку сохранённой версии.
// GET /api/v1/processes/{id}/versions/{version}/preview
func (h *Handler) PreviewVersion(w http.ResponseWriter, r *http.Request) {
	version, ok := h.loadVersion(w, r)
	if !ok {
		return
	}

	Success(w, h.preview(version.Definition, telemetry.SourceStored))
}

// preview строит раскладку и ближайшие запуски триггера.
func (h *Handler) preview(text, source string) PreviewResponse {
	start := time.Now()
	layout := engine.BuildLayout(text)
	stats := layout.Stats()
	telemetry.ObserveLayout(source, stats.StepCount, stats.UnresolvedCount, layout.Err != nil, time.Since(start))

	return engine.NewView(layout, h.now(), h.fireTimes)
}

// readDefinition читает YAML из тела запроса.
// При ошибке ответ уже отправлен и возвращается false.
func (h *Handler) readDefinition(w http.ResponseWriter, r *http.Request) (string, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			PayloadTooLarge(w, tooLarge.Limit)
			return "", false
		}
		BadRequest(w, "failed to read request body")
		return "", false
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return string(body), true
	}

	var req DefinitionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		BadRequest(w, "invalid request body")
		return "", false
	}
	return req.Definition, true
}
