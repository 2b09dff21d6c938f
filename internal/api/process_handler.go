package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/Trinity/internal/domain"
	"github.com/shaiso/Trinity/internal/engine"
	"github.com/shaiso/Trinity/internal/telemetry"
)

// ListProcesses возвращает список всех процессов.
// GET /api/v1/processes
func (h *Handler) ListProcesses(w http.ResponseWriter, r *http.Request) {
	processes, err := h.processes.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ProcessResponse, len(processes))
	for i, p := range processes {
		result[i] = ProcessFromDomain(p)
	}

	List(w, result, len(result))
}

// CreateProcess создаёт новый процесс.
// POST /api/v1/processes
func (h *Handler) CreateProcess(w http.ResponseWriter, r *http.Request) {
	var req CreateProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		BadRequest(w, "name is required")
		return
	}

	process := &domain.Process{
		ID:       uuid.New(),
		Name:     req.Name,
		IsActive: false,
	}

	if err := h.processes.Create(r.Context(), process); err != nil {
		HandleRepoError(w, h.logger, err, "")
		return
	}

	telemetry.WithProcessID(telemetry.FromContext(r.Context()), process.ID.String()).
		Info("process created", "name", process.Name)

	Created(w, ProcessFromDomain(*process))
}

// GetProcess возвращает процесс по ID.
// GET /api/v1/processes/{id}
func (h *Handler) GetProcess(w http.ResponseWriter, r *http.Request) {
	id, ok := processID(w, r)
	if !ok {
		return
	}

	process, err := h.processes.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "process not found") {
		return
	}

	Success(w, ProcessFromDomain(*process))
}

// UpdateProcess обновляет процесс.
// PUT /api/v1/processes/{id}
func (h *Handler) UpdateProcess(w http.ResponseWriter, r *http.Request) {
	id, ok := processID(w, r)
	if !ok {
		return
	}

	var req UpdateProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	process, err := h.processes.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "process not found") {
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			BadRequest(w, "name must not be empty")
			return
		}
		process.Name = name
	}
	if req.IsActive != nil {
		process.IsActive = *req.IsActive
	}

	if err := h.processes.Update(r.Context(), process); err != nil {
		HandleRepoError(w, h.logger, err, "process not found")
		return
	}

	Success(w, ProcessFromDomain(*process))
}

// DeleteProcess удаляет процесс вместе с версиями.
// DELETE /api/v1/processes/{id}
func (h *Handler) DeleteProcess(w http.ResponseWriter, r *http.Request) {
	id, ok := processID(w, r)
	if !ok {
		return
	}

	if err := h.processes.Delete(r.Context(), id); err != nil {
		HandleRepoError(w, h.logger, err, "process not found")
		return
	}

	NoContent(w)
}

// ListVersions возвращает список версий процесса.
// GET /api/v1/processes/{id}/versions
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := processID(w, r)
	if !ok {
		return
	}

	// Проверяем, что процесс существует
	_, err := h.processes.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "process not found") {
		return
	}

	versions, err := h.processes.ListVersions(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	result := make([]ProcessVersionResponse, len(versions))
	for i, v := range versions {
		result[i] = ProcessVersionFromDomain(v)
	}

	List(w, result, len(result))
}

// CreateVersion публикует новую версию процесса.
// POST /api/v1/processes/{id}/versions[?strict=true]
//
// YAML, который не разбирается, не сохраняется (422). С strict=true
// дополнительно запрещены висячие ссылки, циклы и неизвестные типы шагов.
func (h *Handler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := processID(w, r)
	if !ok {
		return
	}

	strict := false
	if raw := r.URL.Query().Get("strict"); raw != "" {
		var err error
		if strict, err = strconv.ParseBool(raw); err != nil {
			BadRequest(w, "invalid strict flag")
			return
		}
	}

	text, ok := h.readDefinition(w, r)
	if !ok {
		return
	}
	if strings.TrimSpace(text) == "" {
		BadRequest(w, "definition is required")
		return
	}

	parsed := engine.Parse(text)
	if parsed.Err != nil {
		InvalidDefinition(w, parsed.Err)
		return
	}
	if strict {
		if err := engine.Validate(&parsed.Definition); err != nil {
			InvalidDefinition(w, err)
			return
		}
	}

	// Проверяем, что процесс существует
	_, err := h.processes.GetByID(r.Context(), id)
	if HandleRepoError(w, h.logger, err, "process not found") {
		return
	}

	version, err := h.processes.CreateVersion(r.Context(), id, text)
	if HandleRepoError(w, h.logger, err, "process not found") {
		return
	}

	logger := telemetry.WithVersion(
		telemetry.WithProcessID(telemetry.FromContext(r.Context()), id.String()),
		version.Version,
	)
	logger.Info("process version created", "steps", len(parsed.Steps), "strict", strict)

	// Версия уже сохранена: сбой публикации не откатывает её,
	// сводку можно пересчитать повторной публикацией события.
	if h.publisher != nil {
		if err := h.publisher.PublishVersionCreated(r.Context(), id, version.Version); err != nil {
			logger.Warn("failed to publish version created event", "error", err)
		}
	}

	Created(w, ProcessVersionFromDomain(*version))
}

// GetVersion возвращает конкретную версию процесса.
// GET /api/v1/processes/{id}/versions/{version}
//
// Вместо номера можно передать "latest".
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	version, ok := h.loadVersion(w, r)
	if !ok {
		return
	}

	Success(w, ProcessVersionFromDomain(*version))
}

// GetLayout возвращает сводку раскладки, посчитанную индексатором.
// GET /api/v1/processes/{id}/versions/{version}/layout
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	version, ok := h.loadVersion(w, r)
	if !ok {
		return
	}

	layout, err := h.layouts.Get(r.Context(), version.ProcessID, version.Version)
	if HandleRepoError(w, h.logger, err, "layout not computed yet") {
		return
	}

	Success(w, LayoutFromDomain(*layout))
}

// loadVersion разбирает {id}/{version} и загружает версию.
func (h *Handler) loadVersion(w http.ResponseWriter, r *http.Request) (*domain.ProcessVersion, bool) {
	id, ok := processID(w, r)
	if !ok {
		return nil, false
	}

	var (
		version *domain.ProcessVersion
		err     error
	)
	if raw := r.PathValue("version"); raw == "latest" {
		version, err = h.processes.GetLatestVersion(r.Context(), id)
	} else {
		num, convErr := strconv.Atoi(raw)
		if convErr != nil || num <= 0 {
			BadRequest(w, "invalid version number")
			return nil, false
		}
		version, err = h.processes.GetVersion(r.Context(), id, num)
	}
	if HandleRepoError(w, h.logger, err, "process version not found") {
		return nil, false
	}

	return version, true
}

// processID разбирает {id} из пути.
func processID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid process id")
		return uuid.Nil, false
	}
	return id, true
}
