package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	ferrors "github.com/revlogica/orchestrator/internal/foundation/errors"
	"github.com/revlogica/orchestrator/internal/manuscript"
	"github.com/revlogica/orchestrator/internal/server/responses"
)

// maxUploadBytes bounds multipart uploads; manuscript XML files are text and
// stay well under this.
const maxUploadBytes = 32 << 20 // 32 MiB

// createDocumentRequest is the JSON body for document creation.
type createDocumentRequest struct {
	Collection   string `json:"collection"`
	DocumentName string `json:"document_name"`
	Content      string `json:"content"`
}

// updateDocumentRequest is the JSON body for document updates.
type updateDocumentRequest struct {
	Content string `json:"content"`
}

// ManuscriptHandlers contains the document management HTTP handlers.
type ManuscriptHandlers struct {
	service      *manuscript.Service
	errorAdapter *ferrors.HTTPErrorAdapter
}

// NewManuscriptHandlers creates a new manuscript handlers instance.
func NewManuscriptHandlers(service *manuscript.Service) *ManuscriptHandlers {
	return &ManuscriptHandlers{
		service:      service,
		errorAdapter: ferrors.NewHTTPErrorAdapter(slog.Default()),
	}
}

// HandleRoot answers the root endpoint with a short service banner.
func (h *ManuscriptHandlers) HandleRoot(w http.ResponseWriter, r *http.Request) {
	_ = writeJSONPretty(w, r, http.StatusOK,
		responses.MessageResponse{Message: "Revlogica Orchestrator is running."})
}

// HandleUpload creates a document from a multipart file upload. Collection and
// document name arrive as query parameters, the content as the uploaded file.
func (h *ManuscriptHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	name := r.URL.Query().Get("document_name")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			ferrors.ValidationError("request is not a valid multipart upload").WithCause(err).Build())
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			ferrors.ValidationError("a file upload named 'file' is required").WithCause(err).Build())
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			ferrors.ValidationError("failed to read uploaded file").WithCause(err).Build())
		return
	}

	if err := h.service.CreateDocument(r.Context(), collection, name, string(content)); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusCreated,
		responses.MessageResponse{Message: "Document uploaded successfully"})
}

// HandleCreate creates a document from a JSON payload.
func (h *ManuscriptHandlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			ferrors.ValidationError("request body is not valid JSON").WithCause(err).Build())
		return
	}

	if err := h.service.CreateDocument(r.Context(), req.Collection, req.DocumentName, req.Content); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusCreated,
		responses.MessageResponse{Message: "Document created successfully"})
}

// HandleList lists all documents within a collection.
func (h *ManuscriptHandlers) HandleList(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	names, err := h.service.ListDocuments(r.Context(), collection)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	_ = writeJSONPretty(w, r, http.StatusOK,
		responses.DocumentListResponse{Collection: collection, Documents: names})
}

// HandleGet retrieves a single document and returns its raw XML.
func (h *ManuscriptHandlers) HandleGet(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	name := r.PathValue("document_name")

	content, err := h.service.GetDocument(r.Context(), collection, name)
	if err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

// HandleUpdate replaces an existing document's content.
func (h *ManuscriptHandlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	name := r.PathValue("document_name")

	var req updateDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r,
			ferrors.ValidationError("request body is not valid JSON").WithCause(err).Build())
		return
	}

	if err := h.service.UpdateDocument(r.Context(), collection, name, req.Content); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK,
		responses.MessageResponse{Message: "Document updated successfully"})
}

// HandleDelete removes a document.
func (h *ManuscriptHandlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	name := r.PathValue("document_name")

	if err := h.service.DeleteDocument(r.Context(), collection, name); err != nil {
		h.errorAdapter.WriteErrorResponse(w, r, err)
		return
	}
	_ = writeJSON(w, http.StatusOK,
		responses.MessageResponse{Message: "Document deleted successfully"})
}
