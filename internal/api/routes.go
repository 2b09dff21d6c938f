package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Preview (без сохранения)
	mux.Handle("POST /api/v1/preview", chain(http.HandlerFunc(h.Preview)))

	// Справочник типов шагов
	mux.Handle("GET /api/v1/step-types", chain(http.HandlerFunc(h.ListStepTypes)))

	// Processes
	mux.Handle("GET /api/v1/processes", chain(http.HandlerFunc(h.ListProcesses)))
	mux.Handle("POST /api/v1/processes", chain(http.HandlerFunc(h.CreateProcess)))
	mux.Handle("GET /api/v1/processes/{id}", chain(http.HandlerFunc(h.GetProcess)))
	mux.Handle("PUT /api/v1/processes/{id}", chain(http.HandlerFunc(h.UpdateProcess)))
	mux.Handle("DELETE /api/v1/processes/{id}", chain(http.HandlerFunc(h.DeleteProcess)))

	// Process Versions
	mux.Handle("GET /api/v1/processes/{id}/versions", chain(http.HandlerFunc(h.ListVersions)))
	mux.Handle("POST /api/v1/processes/{id}/versions", chain(http.HandlerFunc(h.CreateVersion)))
	mux.Handle("GET /api/v1/processes/{id}/versions/{version}", chain(http.HandlerFunc(h.GetVersion)))
	mux.Handle("GET /api/v1/processes/{id}/versions/{version}/preview", chain(http.HandlerFunc(h.PreviewVersion)))
	mux.Handle("GET /api/v1/processes/{id}/versions/{version}/layout", chain(http.HandlerFunc(h.GetLayout)))
}
