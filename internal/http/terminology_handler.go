package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"termbridge/internal/domain"
	"termbridge/internal/service"
)

// TerminologyHandler serves the search / translate / chat surface.
type TerminologyHandler struct {
	svc    *service.TerminologyService
	rag    *service.RAGClient
	logger *zap.Logger
}

func NewTerminologyHandler(svc *service.TerminologyService, rag *service.RAGClient, logger *zap.Logger) *TerminologyHandler {
	return &TerminologyHandler{svc: svc, rag: rag, logger: logger}
}

// SearchResult is one scored candidate in the search response.
type SearchResult struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Source      string   `json:"source"`
	Synonyms    []string `json:"synonyms"`
	Description string   `json:"description"`
	Relevance   float64  `json:"relevance"`
}

// Search GET /search?q=<text>
func (h *TerminologyHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, `query parameter "q" is required`)
		return
	}

	hits, err := h.svc.Search(r.Context(), q)
	if err != nil {
		if domain.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Index/store failure must surface: a silent empty result would be
		// indistinguishable from "no match".
		h.logger.Error("search failed", zap.String("q", q), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchResult{
			Code:        hit.Term.Code,
			Name:        hit.Term.Name,
			Source:      string(hit.Term.Source),
			Synonyms:    hit.Term.Synonyms,
			Description: hit.Term.Description,
			Relevance:   hit.Score,
		})
	}
	writeJSON(w, http.StatusOK, results)
}

// TranslateResult is the translate response body.
type TranslateResult struct {
	TargetCode   string `json:"targetCode"`
	TargetSystem string `json:"targetSystem"`
	Relationship string `json:"relationship"`
}

// Translate GET /translate?code=<c>&target=<system>
func (h *TerminologyHandler) Translate(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	target := r.URL.Query().Get("target")
	if code == "" || target == "" {
		writeError(w, http.StatusBadRequest, `query parameters "code" and "target" are required`)
		return
	}

	mapping, err := h.svc.Translate(r.Context(), code, target)
	if err != nil {
		switch {
		case domain.IsValidation(err):
			writeError(w, http.StatusBadRequest, err.Error())
		case domain.IsNotFound(err):
			writeError(w, http.StatusNotFound, err.Error())
		default:
			h.logger.Error("translate failed", zap.String("code", code), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, TranslateResult{
		TargetCode:   mapping.TargetCode,
		TargetSystem: string(mapping.TargetSystem),
		Relationship: string(mapping.Relationship),
	})
}

// Chat POST /chat {query} — proxied to the RAG service, which is consumed as
// an opaque question-answering boundary.
func (h *TerminologyHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Query == "" {
		writeError(w, http.StatusBadRequest, `"query" is required`)
		return
	}

	answer, err := h.rag.Chat(r.Context(), body.Query)
	if err != nil {
		if domain.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("RAG chat failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to get response from AI service")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

// TermResult is the stored term as returned by the curation endpoint.
// Unlike SearchResult it carries the full record, lifecycle fields included.
type TermResult struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Source      string   `json:"source"`
	Synonyms    []string `json:"synonyms"`
	Description string   `json:"description"`
	IsActive    bool     `json:"is_active"`
	Version     string   `json:"version"`
}

// UpsertTerm POST /terms — curation write path; exercises the same
// validation and upsert contract as batch ingestion.
func (h *TerminologyHandler) UpsertTerm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code        string   `json:"code"`
		Source      string   `json:"source"`
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Synonyms    []string `json:"synonyms"`
		IsActive    *bool    `json:"is_active"`
		Version     string   `json:"version"`
	}
	if err := readBodyJSON(r, 1<<20, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	active := true
	if body.IsActive != nil {
		active = *body.IsActive
	}
	term := &domain.Term{
		Code:        body.Code,
		Source:      domain.ParseSourceSystem(body.Source),
		Name:        body.Name,
		Description: body.Description,
		Synonyms:    body.Synonyms,
		IsActive:    active,
		Version:     body.Version,
	}
	if term.Source == "" {
		// Preserve the raw value so validation reports what was sent.
		term.Source = domain.SourceSystem(body.Source)
	}

	stored, err := h.svc.UpsertTerm(r.Context(), term)
	if err != nil {
		if domain.IsValidation(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("term upsert failed", zap.String("code", body.Code), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, TermResult{
		Code:        stored.Code,
		Name:        stored.Name,
		Source:      string(stored.Source),
		Synonyms:    stored.Synonyms,
		Description: stored.Description,
		IsActive:    stored.IsActive,
		Version:     stored.Version,
	})
}
