package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/omniql-engine/nlq/fault"
)

type queryRequest struct {
	Query   string `json:"query"`
	Backend string `json:"backend"`
	Execute bool   `json:"execute"`
}

func (req queryRequest) validate() error {
	errs := fault.FieldErrorsMetadata{}
	if strings.TrimSpace(req.Query) == "" {
		errs["query"] = append(errs["query"], "Must be provided.")
	}
	if strings.TrimSpace(req.Backend) == "" {
		errs["backend"] = append(errs["backend"], "Must be provided.")
	}
	if len(errs) > 0 {
		return fault.New(fault.BadInputCode, "").WithMetadata(errs)
	}
	return nil
}

func (s *server) queryHandler(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := s.readJson(w, r, &req); err != nil {
		s.handleError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		s.handleError(w, r, err)
		return
	}

	res, err := s.client.Compiler().Compile(r.Context(), req.Query, req.Backend)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	generated, err := res.Query.Map()
	if err != nil {
		s.internalServerError(w, r, err)
		return
	}

	data := map[string]any{
		"backend":         res.Backend,
		"intent":          res.Intent,
		"generated_query": generated,
	}

	if req.Execute {
		rows, err := s.client.Execute(r.Context(), res.Query)
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		if rows == nil {
			rows = []map[string]any{}
		}
		data["result"] = rows
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Data:    data,
	}, nil)
}

func (s *server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.notFound(w, r, "Query history is not enabled.")
		return
	}

	limit := s.cfg.HistoryLimit
	if limit == 0 {
		limit = 20
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.handleError(w, r, fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
				"limit": []string{"Must be a positive integer."},
			}))
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.internalServerError(w, r, err)
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success:  true,
		Data:     map[string]any{"entries": entries},
		Metadata: map[string]any{"limit": limit},
	}, nil)
}
