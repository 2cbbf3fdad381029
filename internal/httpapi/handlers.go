package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/csvflow/internal/dataset"
	"github.com/leapstack-labs/csvflow/internal/engine"
	"github.com/leapstack-labs/csvflow/internal/pipeline"
	"github.com/leapstack-labs/csvflow/internal/store"
)

type analyzeRequest struct {
	DatasetName string `json:"dataset_name"`
	CSVContent  string `json:"csv_content"`
	CSVPath     string `json:"csv_path"`
	Delimiter   string `json:"delimiter"`
}

type datasetRequest struct {
	DatasetName string `json:"dataset_name"`
}

type queryRequest struct {
	DatasetName string `json:"dataset_name"`
	Query       string `json:"query"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"workspace": s.engine.Workspace(),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.CSVContent == "" && req.CSVPath == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("csv_content or csv_path is required"))
		return
	}

	result, err := s.engine.Analyze(r.Context(), engine.AnalyzeRequest{
		DatasetName: req.DatasetName,
		CSVContent:  req.CSVContent,
		CSVPath:     req.CSVPath,
		Delimiter:   req.Delimiter,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeSuccess(w, result)
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.engine.Transform(r.Context(), req.DatasetName)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeSuccess(w, result)
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if !s.decode(w, r, &req) {
		return
	}

	result, err := s.engine.Load(r.Context(), req.DatasetName)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeSuccess(w, result)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Query == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("query is required"))
		return
	}

	result, err := s.engine.Query(r.Context(), req.DatasetName, req.Query)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"columns":   result.Columns,
		"rows":      result.Rows,
		"row_count": len(result.Rows),
		"truncated": result.Truncated,
	})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	infos, err := s.engine.ListDatasets(r.Context())
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if infos == nil {
		infos = []dataset.Info{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":   "success",
		"datasets": infos,
		"count":    len(infos),
	})
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	result, err := s.engine.DeleteDataset(r.Context(), name)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if len(result.Deleted) == 0 {
		s.writeError(w, http.StatusNotFound, errors.New("dataset not found: "+name))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "success",
		"deleted": result.Deleted,
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, errors.New("invalid request body"))
		return false
	}
	return true
}

// writeEngineError maps engine failures to HTTP status codes. Caller
// mistakes (bad names, bad headers, unsafe SQL) get 400, missing
// artifacts 404, everything else 500.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	var (
		notFound  *dataset.NotFoundError
		malformed *pipeline.MalformedHeaderError
		unsafe    *store.UnsafeQueryError
	)
	switch {
	case errors.As(err, &notFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.As(err, &malformed), errors.As(err, &unsafe), errors.Is(err, dataset.ErrInvalidName):
		s.writeError(w, http.StatusBadRequest, err)
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) writeSuccess(w http.ResponseWriter, result any) {
	payload, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	fields["status"] = "success"
	s.writeJSON(w, http.StatusOK, fields)
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, map[string]any{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("write response", "error", err)
	}
}
