package handlers

import (
	"log/slog"
	"net/http"

	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/nlp"
)

// NLPHandlers contains the entity extraction HTTP handlers.
type NLPHandlers struct {
	service      *nlp.Service
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewNLPHandlers creates a new NLP handlers instance.
func NewNLPHandlers(service *nlp.Service) *NLPHandlers {
	return &NLPHandlers{
		service:      service,
		errorAdapter: ferrors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleExtractEntities runs named entity recognition over a stored document.
func (h *NLPHandlers) HandleExtractEntities(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	name := r.PathValue("document_name")

	extraction, err := h.service.ExtractFromDocument(r.Context(), collection, name)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if extraction.Entities == nil {
		extraction.Entities = []nlp.Entity{}
	}
	_ = writeJSONPretty(w, r, http.StatusOK, extraction)
}
