package api

import (
	"errors"
	"net/http"

	"github.com/omniql-engine/nlq"
	"github.com/omniql-engine/nlq/fault"
)

func (s *server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var f fault.Fault
	if !errors.As(err, &f) {
		f = compileFault(err)
	}
	if f == nil {
		s.internalServerError(w, r, err)
		return
	}

	switch f.Code() {
	case fault.BadInputCode:
		if metadata, ok := f.Metadata().(fault.FieldErrorsMetadata); ok {
			s.unprocessableEntity(w, r, metadata)
			return
		}

		s.badRequest(w, r, f.Message(), f.Metadata())

	case fault.UnprocessableCode:
		s.writeError(w, r, http.StatusUnprocessableEntity, f.Message(), f.Metadata())

	case fault.NotFoundCode:
		s.writeError(w, r, http.StatusNotFound, f.Message(), f.Metadata())

	case fault.UnavailableCode:
		s.writeError(w, r, http.StatusServiceUnavailable, f.Message(), f.Metadata())

	default:
		s.internalServerError(w, r, err)
	}
}

// compileFault classifies pipeline errors; nil means the error is internal
func compileFault(err error) fault.Fault {
	var stage string
	var cerr *nlq.Error
	if errors.As(err, &cerr) {
		stage = cerr.Stage
	}
	metadata := map[string]any{"stage": stage}

	switch {
	case errors.Is(err, nlq.ErrUnsupportedBackend):
		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
			"backend": []string{err.Error()},
		})

	case errors.Is(err, nlq.ErrNoMatch),
		errors.Is(err, nlq.ErrMissingAggregateTarget),
		errors.Is(err, nlq.ErrMalformedFilterValue),
		errors.Is(err, nlq.ErrUnsupportedOperation),
		errors.Is(err, nlq.ErrIncompleteIntent):
		return fault.New(fault.UnprocessableCode, err.Error()).WithMetadata(metadata).WithOriginal(err)

	case errors.Is(err, nlq.ErrUnknownTable), errors.Is(err, nlq.ErrUnknownField):
		return fault.New(fault.NotFoundCode, err.Error()).WithMetadata(metadata).WithOriginal(err)

	case errors.Is(err, nlq.ErrNoConnection):
		return fault.New(fault.UnavailableCode, err.Error()).WithOriginal(err)

	case stage == nlq.StageSyntax:
		return fault.New(fault.UnprocessableCode, err.Error()).WithMetadata(metadata).WithOriginal(err)
	}

	return nil
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, message string, metadata any) {
	res := apiResponse{
		Success: false,
		Message: message,
	}
	if metadata != nil {
		res.Metadata = map[string]any{"context": metadata}
	}

	if err := s.writeJson(w, status, res, nil); err != nil {
		s.logger.Error("failed to write error response", "method", r.Method, "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *server) badRequest(w http.ResponseWriter, r *http.Request, message string, metadata any) {
	s.writeError(w, r, http.StatusBadRequest, message, metadata)
}

func (s *server) unprocessableEntity(w http.ResponseWriter, r *http.Request, errs fault.FieldErrorsMetadata) {
	err := s.writeJson(w, http.StatusUnprocessableEntity, apiResponse{
		Success:  false,
		Message:  "Validation failed",
		Metadata: map[string]any{"errors": errs},
	}, nil)
	if err != nil {
		s.logger.Error("failed to write error response", "method", r.Method, "path", r.URL.Path, "error", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *server) notFound(w http.ResponseWriter, r *http.Request, message string) {
	s.writeError(w, r, http.StatusNotFound, message, nil)
}

func (s *server) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("internal server error", "method", r.Method, "path", r.URL.Path, "error", err)

	s.writeError(w, r, http.StatusInternalServerError, "The server encountered a problem and could not process your request.", nil)
}
