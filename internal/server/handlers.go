package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/zombor/expense-review/internal/compliance"
	"github.com/zombor/expense-review/internal/report"
	"github.com/zombor/expense-review/internal/scanning"
)

// maxUploadSize covers high-resolution phone photos
const maxUploadSize = int64(50 << 20)

const errorKindInvalidReview = "invalid_review_response"

type errorResponse struct {
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind,omitempty"`
}

type draftResponse struct {
	report.Draft
	State string `json:"state"`
}

type committedResponse struct {
	LineItemNo int                 `json:"line_item_no"`
	LineItem   report.LineItemView `json:"line_item"`
}

type healthResponse struct {
	Status       string `json:"status"`
	PolicyLoaded bool   `json:"policy_loaded"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorResponse{Error: message})
}

// decodeEdits reads optional edits; an empty body means no edits
func decodeEdits(r *http.Request) (report.Edits, error) {
	var edits report.Edits
	err := json.NewDecoder(r.Body).Decode(&edits)
	if err != nil && !errors.Is(err, io.EOF) {
		return edits, err
	}
	return edits, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := s.service.policy.Policy()
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", PolicyLoaded: err == nil})
}

func (s *Server) handleExpenseTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, report.ExpenseTypes)
}

// handleUploadReceipt analyzes an uploaded receipt into the draft
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request, session *report.Session) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.logger.Error("Error parsing multipart form", zap.Error(err))
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 50MB. Please compress or resize your image.")
			return
		}
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		s.logger.Error("Error getting file from form", zap.Error(err))
		writeError(w, http.StatusBadRequest, "No file was selected. Please choose a file to upload.")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.logger.Error("Error reading file data", zap.Error(err), zap.String("filename", header.Filename))
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	contentType := scanning.ContentTypeFor(header.Filename, header.Header.Get("Content-Type"))
	draft, err := s.service.ScanReceipt(r.Context(), session, data, contentType)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, draftResponse{Draft: draft, State: report.StatePopulated.String()})
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request, session *report.Session) {
	draft, state := session.Draft()
	writeJSON(w, http.StatusOK, draftResponse{Draft: draft, State: state.String()})
}

func (s *Server) handleEditDraft(w http.ResponseWriter, r *http.Request, session *report.Session) {
	edits, err := decodeEdits(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	draft, err := s.service.EditDraft(session, edits)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, draftResponse{Draft: draft, State: report.StatePopulated.String()})
}

func (s *Server) handleListLineItems(w http.ResponseWriter, r *http.Request, session *report.Session) {
	writeJSON(w, http.StatusOK, session.DisplayView())
}

// handleCommitLineItem commits the draft with the final user values
func (s *Server) handleCommitLineItem(w http.ResponseWriter, r *http.Request, session *report.Session) {
	edits, err := decodeEdits(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, n, err := s.service.CommitDraft(session, edits)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, committedResponse{LineItemNo: n, LineItem: item.View()})
}

// handleSubmitReport reviews every committed line item against the policy
func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request, session *report.Session) {
	result, err := s.service.Submit(r.Context(), session)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, compliance.ErrPolicyUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, compliance.ErrInvalidResponse):
		s.logger.Error("Reviewer answered off schema", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), ErrorKind: errorKindInvalidReview})
	default:
		s.logger.Error("Error submitting report", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}
