package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/safedialog/safedialog/internal/dictionary"
	"github.com/safedialog/safedialog/internal/entity"
	"github.com/safedialog/safedialog/internal/masker"
	"github.com/safedialog/safedialog/internal/websocket"
)

const maxRequestBody = 1 << 20 // 1MB

type maskTextRequest struct {
	Text    string `json:"text"`
	Context string `json:"context,omitempty"`
}

type maskTextResponse struct {
	MaskedText     string                   `json:"maskedText"`
	MaskedContext  string                   `json:"maskedContext,omitempty"`
	EntitiesFound  []entity.SensitiveEntity `json:"entitiesFound"`
	ProcessingTime float64                  `json:"processingTime"`
}

// handleMaskText masks one text field, or two independent fields when a
// context accompanies the query. Fields are masked concurrently, each with
// its own identifier namespace; entity lists are concatenated for reporting
// but the masked texts are never merged.
func (s *Server) handleMaskText(w http.ResponseWriter, r *http.Request) {
	var req maskTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text must not be empty")
		return
	}

	start := time.Now()
	var resp maskTextResponse
	var fromCache bool

	if req.Context == "" {
		result, err := s.deps.Masker.Mask(r.Context(), req.Text)
		if err != nil {
			s.writeMaskingError(w, r, err)
			return
		}
		resp.MaskedText = result.MaskedText
		resp.EntitiesFound = result.EntitiesFound
		fromCache = result.FromCache
	} else {
		results := s.deps.Masker.MaskFields(r.Context(), []string{req.Text, req.Context})
		for _, fr := range results {
			if fr.Err != nil {
				s.writeMaskingError(w, r, fr.Err)
				return
			}
		}
		resp.MaskedText = results[0].Result.MaskedText
		resp.MaskedContext = results[1].Result.MaskedText
		resp.EntitiesFound = append(results[0].Result.EntitiesFound, results[1].Result.EntitiesFound...)
		fromCache = results[0].Result.FromCache && results[1].Result.FromCache
	}

	elapsed := time.Since(start)
	resp.ProcessingTime = elapsed.Seconds()
	if resp.EntitiesFound == nil {
		resp.EntitiesFound = []entity.SensitiveEntity{}
	}

	s.wsHub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeMasking,
		Timestamp: time.Now(),
		Data: websocket.MaskingEvent{
			RequestID:     getRequestID(r.Context()),
			EntitiesFound: len(resp.EntitiesFound),
			Categories:    categoriesOf(resp.EntitiesFound),
			FromCache:     fromCache,
			ProcessingMS:  float64(elapsed.Milliseconds()),
		},
	})

	writeJSON(w, http.StatusOK, resp)
}

type demaskTextRequest struct {
	MaskedText string                   `json:"maskedText"`
	Entities   []entity.SensitiveEntity `json:"entities,omitempty"`
}

// handleDemaskText restores original values in masked text. The entity list
// is optional: detailed tokens fall back to their embedded values.
func (s *Server) handleDemaskText(w http.ResponseWriter, r *http.Request) {
	var req demaskTextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	mapping := entity.NewMapping(req.Entities...)
	demasked := masker.Demask(req.MaskedText, mapping, s.logger.Logger)
	writeJSON(w, http.StatusOK, demasked)
}

type processRequest struct {
	Text         string `json:"text"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
}

// handleProcess forwards already-masked text to the external AI and returns
// the raw answer. Demasking the answer is the caller's step; the server
// never holds the session mapping.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if s.deps.Responder == nil {
		writeError(w, http.StatusServiceUnavailable, "responder is not configured")
		return
	}

	var req processRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text must not be empty")
		return
	}

	systemPrompt := req.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = s.deps.Prompt.Load()
	}

	answer, err := s.deps.Responder.Complete(r.Context(), req.Text, systemPrompt)
	if err != nil {
		s.logger.Error("responder request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "external AI request failed")
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

type addEntityRequest struct {
	Name        string `json:"name"`
	Placeholder string `json:"placeholder"`
	Category    string `json:"category,omitempty"`
}

func (s *Server) handleListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := s.deps.Store.List(r.Context())
	if err != nil {
		s.writeDictionaryError(w, err)
		return
	}
	if entities == nil {
		entities = []dictionary.Entity{}
	}
	writeJSON(w, http.StatusOK, entities)
}

func (s *Server) handleAddEntity(w http.ResponseWriter, r *http.Request) {
	var req addEntityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	created, err := s.deps.Store.Add(r.Context(), req.Name, req.Placeholder, req.Category)
	if err != nil {
		s.writeDictionaryError(w, err)
		return
	}

	s.broadcastDictionary("added", created.ID, created.Placeholder)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateEntity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req dictionary.Update
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	updated, err := s.deps.Store.Update(r.Context(), id, req)
	if err != nil {
		s.writeDictionaryError(w, err)
		return
	}

	s.broadcastDictionary("updated", updated.ID, updated.Placeholder)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := s.deps.Store.Delete(r.Context(), id); err != nil {
		s.writeDictionaryError(w, err)
		return
	}

	s.broadcastDictionary("deleted", id, "")
	writeJSON(w, http.StatusOK, map[string]string{"message": "entity deleted"})
}

type systemPromptRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) handleGetSystemPrompt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"data": s.deps.Prompt.Load()})
}

func (s *Server) handlePutSystemPrompt(w http.ResponseWriter, r *http.Request) {
	var req systemPromptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return
	}

	if err := s.deps.Prompt.Save(req.Prompt); err != nil {
		s.logger.Error("failed to save system prompt", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save system prompt")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"data": req.Prompt})
}

// writeMaskingError maps masking pipeline failures to HTTP statuses:
// timeouts to 504 so callers can offer a skip-masking fallback, other
// detection failures to 502.
func (s *Server) writeMaskingError(w http.ResponseWriter, r *http.Request, err error) {
	var timeout *masker.DetectionTimeoutError
	var failed *masker.DetectionFailedError
	switch {
	case errors.As(err, &timeout):
		writeError(w, http.StatusGatewayTimeout, "sensitive data detection timed out")
	case errors.As(err, &failed):
		writeError(w, http.StatusBadGateway, "sensitive data detection failed")
	default:
		s.logger.Error("masking failed",
			zap.String("request_id", getRequestID(r.Context())),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "masking failed")
	}
}

func (s *Server) writeDictionaryError(w http.ResponseWriter, err error) {
	var dup *dictionary.DuplicateNameError
	var notFound *dictionary.NotFoundError
	switch {
	case errors.As(err, &dup):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		// Validation failures read as "invalid entity: ..."; everything
		// else is a store failure.
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("dictionary operation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "dictionary operation failed")
	}
}

func (s *Server) broadcastDictionary(action, id, placeholder string) {
	s.wsHub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeDictionary,
		Timestamp: time.Now(),
		Data: websocket.DictionaryEvent{
			Action:      action,
			EntityID:    id,
			Placeholder: placeholder,
		},
	})
}

// isValidationError recognizes field-validation failures from the
// dictionary store, which wrap entity validation with this prefix.
func isValidationError(err error) bool {
	return strings.HasPrefix(err.Error(), "invalid entity")
}

func categoriesOf(entities []entity.SensitiveEntity) []string {
	seen := make(map[string]bool)
	var categories []string
	for _, e := range entities {
		if e.Category == "" || seen[e.Category] {
			continue
		}
		seen[e.Category] = true
		categories = append(categories, e.Category)
	}
	return categories
}

// decodeJSON reads a bounded JSON body, answering 400 itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
