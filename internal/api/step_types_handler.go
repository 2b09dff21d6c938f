package api

import (
	"net/http"
)

// ListStepTypes возвращает справочник типов шагов.
// GET /api/v1/step-types
func (h *Handler) ListStepTypes(w http.ResponseWriter, r *http.Request) {
	kinds := h.kinds.Kinds()

	resp := make([]StepKindResponse, len(kinds))
	for i, k := range kinds {
		resp[i] = StepKindResponse{
			Type:        k.Type.String(),
			Label:       k.Label,
			Description: k.Description,
			Color:       k.Color,
		}
	}

	List(w, resp, len(resp))
}
