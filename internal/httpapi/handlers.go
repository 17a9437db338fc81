package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orcaarchive/orca/internal/apperr"
	"github.com/orcaarchive/orca/internal/corpus"
	"github.com/orcaarchive/orca/internal/guid"
	"github.com/orcaarchive/orca/internal/logger"
	"github.com/orcaarchive/orca/internal/search"
)

// handleRoot reports the API version and the latest Corpus, or {} if none
// has been snapshotted yet.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	corpusDict := map[string]any{}

	latest, err := s.corpora.GetLatest(r.Context())
	switch {
	case errors.Is(err, corpus.ErrNotFound):
		// corpusDict stays {}
	case err != nil:
		writeError(w, err)
		return
	default:
		corpusDict, err = guid.AsDict(latest, []string{"checksum"}, true)
		if err != nil {
			writeError(w, err)
			return
		}
		corpusDict["checksum"] = latest.Checksum
	}

	root := map[string]any{
		"apiVersion": s.apiVersion,
		"corpus":     corpusDict,
	}
	sum, err := guid.ChecksumMap(root)
	if err != nil {
		writeError(w, err)
		return
	}
	root["checksum"] = sum

	writeJSON(w, http.StatusOK, root)
}

// createSearchRequest accepts either the snake_case or camelCase spelling
// of the query, matching guid.AsDict's symmetric key-remap convention.
type createSearchRequest struct {
	SearchStrSnake string `json:"search_str"`
	SearchStrCamel string `json:"searchStr"`
}

func (req createSearchRequest) str() string {
	if req.SearchStrSnake != "" {
		return req.SearchStrSnake
	}
	return req.SearchStrCamel
}

// handleCreateSearch runs a Search synchronously through every configured
// megadoc filetype and returns 202 with a Location header pointing at the
// finished resource; the pipeline has no separate "pending" polling state
// beyond the Search's own status field.
func (s *Server) handleCreateSearch(w http.ResponseWriter, r *http.Request) {
	var req createSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	searchStr := req.str()
	if len(searchStr) < search.MinQueryLen {
		writeJSONError(w, http.StatusBadRequest, "search_str is too short")
		return
	}

	result, err := s.orchestrator.StartSearch(r.Context(), searchStr, s.megadocTypes)
	if err != nil {
		writeError(w, err)
		return
	}

	for filetype, buildErr := range result.Errors {
		logger.WithFields(map[string]any{"search": result.Search.GUID, "filetype": filetype}).
			WithError(buildErr).Warn("megadoc build/upload failed during search")
	}

	w.Header().Set("Location", "/search/"+result.Search.GUID)
	w.WriteHeader(http.StatusAccepted)
}

// handleGetSearch returns the Search serialized with its attached
// Megadocs, one entry per built filetype.
func (s *Server) handleGetSearch(w http.ResponseWriter, r *http.Request) {
	guidParam := chi.URLParam(r, "guid")

	sr, err := s.searches.Get(r.Context(), guidParam)
	if err != nil {
		writeError(w, err)
		return
	}

	dict, err := guid.AsDict(sr, nil, true)
	if err != nil {
		writeError(w, err)
		return
	}

	megadocs, err := s.megadocs.GetBySearch(r.Context(), guidParam)
	if err != nil {
		writeError(w, err)
		return
	}
	megadocDicts := make([]map[string]any, 0, len(megadocs))
	for _, m := range megadocs {
		md, err := guid.AsDict(m, nil, true)
		if err != nil {
			writeError(w, err)
			return
		}
		megadocDicts = append(megadocDicts, md)
	}
	dict["megadocs"] = megadocDicts

	writeJSON(w, http.StatusOK, dict)
}

func (s *Server) handleDeleteSearch(w http.ResponseWriter, r *http.Request) {
	guidParam := chi.URLParam(r, "guid")

	if err := s.searches.Delete(r.Context(), guidParam); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.WithError(err).Warn("failed to encode response body")
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

// writeError maps an apperr/store sentinel to the HTTP status it translates
// to; anything unrecognized is a 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrBusy):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, apperr.ErrBadInput):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, search.ErrNotFound), errors.Is(err, corpus.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	default:
		logger.WithError(err).Error("unhandled httpapi error")
		writeJSONError(w, http.StatusInternalServerError, "internal error")
	}
}
