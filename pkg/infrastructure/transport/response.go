package transport

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"ecommerce/pkg/domain/model"
)

const maxBodyBytes = 1 << 20

var (
	errRouteNotFound    = &httpError{status: http.StatusNotFound, message: "route not found"}
	errMethodNotAllowed = &httpError{status: http.StatusMethodNotAllowed, message: "method not allowed"}
	errInternal         = errors.New("internal server error")
	errMissingToken     = &httpError{status: http.StatusUnauthorized, message: "authentication token is missing", kind: model.ErrUnauthorized}
)

// httpError is a transport-level failure with a fixed status.
type httpError struct {
	status  int
	message string
	kind    error
}

func (e *httpError) Error() string { return e.message }
func (e *httpError) Unwrap() error { return e.kind }

type successResponse struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *pagination `json:"pagination,omitempty"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type errorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Error   string   `json:"error,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("marshal response")
		http.Error(w, `{"success":false,"message":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(b); err != nil {
		log.WithError(err).Error("write response")
	}
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, successResponse{Success: true, Data: data})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: message})
}

func writePage(w http.ResponseWriter, data interface{}, page model.Page, total int) {
	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Data:    data,
		Pagination: &pagination{
			Page:  page.Number,
			Limit: page.Limit,
			Total: total,
			Pages: page.TotalPages(total),
		},
	})
}

func statusFor(err error) int {
	var httpErr *httpError
	switch {
	case errors.As(err, &httpErr):
		return httpErr.status
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError turns err into the error envelope. Internal and upstream
// details are logged, never returned.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	response := errorResponse{Message: err.Error(), Error: http.StatusText(status)}

	var validationErr *model.ValidationError
	if errors.As(err, &validationErr) {
		response.Message = validationErr.Message
		response.Fields = validationErr.Fields
	}

	switch status {
	case http.StatusInternalServerError:
		log.WithError(err).WithFields(log.Fields{"method": r.Method, "url": r.URL}).Error("request failed")
		response.Message = errInternal.Error()
	case http.StatusBadGateway:
		log.WithError(err).WithFields(log.Fields{"method": r.Method, "url": r.URL}).Warn("upstream service failed")
		response.Message = "upstream service is unavailable"
	}
	writeJSON(w, status, response)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return model.NewValidationError("request body is empty")
		}
		return model.NewValidationError("malformed request body")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be omitted.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if r.ContentLength == 0 {
		return nil
	}
	return decodeJSON(w, r, dst)
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, model.NewValidationError("invalid identifier", name)
	}
	return id, nil
}

func parseID(value, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, model.NewValidationError("invalid identifier", field)
	}
	return id, nil
}

func pageFromQuery(r *http.Request) model.Page {
	query := r.URL.Query()
	number, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	return model.NewPage(number, limit)
}
