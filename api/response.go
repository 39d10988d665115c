package api

import (
	"encoding/json"
	"net/http"
)

// Error is a generic error structure that is used to send error responses to the client.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Response is a generic response structure that is used to send responses to the client.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  *Error `json:"error,omitempty"`
}

// NewResponse - empty response, chain SetData or SetError and a status method.
func NewResponse() *Response {
	return &Response{}
}

// Error message
func (e *Error) Error() string {
	return e.Message
}

// Set data to response
func (rsp *Response) SetData(data any) *Response {
	rsp.Data = data
	rsp.Error = nil
	return rsp
}

// Set error to response, the first detail (if any) is sent along
func (rsp *Response) SetError(code string, message string, details ...any) *Response {
	rsp.Data = nil
	rsp.Error = &Error{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		rsp.Error.Details = details[0]
	}
	return rsp
}

// Send success response to client
func (rsp *Response) Ok(w http.ResponseWriter) {
	rsp.Status = "ok"
	rsp.write(w, http.StatusOK)
}

// Send success response for a created resource
func (rsp *Response) Created(w http.ResponseWriter) {
	rsp.Status = "ok"
	rsp.write(w, http.StatusCreated)
}

func (rsp *Response) BadRequest(w http.ResponseWriter) {
	rsp.fail(w, http.StatusBadRequest, "bad_request", "Bad request")
}

func (rsp *Response) Unauthorized(w http.ResponseWriter) {
	rsp.fail(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
}

func (rsp *Response) Forbidden(w http.ResponseWriter) {
	rsp.fail(w, http.StatusForbidden, "forbidden", "Forbidden")
}

func (rsp *Response) NotFound(w http.ResponseWriter) {
	rsp.fail(w, http.StatusNotFound, "not_found", "Not found")
}

func (rsp *Response) MethodNotAllowed(w http.ResponseWriter) {
	rsp.fail(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
}

func (rsp *Response) TooManyRequests(w http.ResponseWriter) {
	rsp.fail(w, http.StatusTooManyRequests, "too_many_requests", "Too many requests")
}

func (rsp *Response) InternalServerError(w http.ResponseWriter) {
	rsp.fail(w, http.StatusInternalServerError, "internal_server_error", "Internal server error")
}

// Send error response to client, with a default error when none was set
func (rsp *Response) fail(w http.ResponseWriter, status int, code, message string) {
	rsp.Status = "error"
	if rsp.Error == nil {
		rsp.Error = &Error{
			Code:    code,
			Message: message,
		}
	}
	rsp.write(w, status)
}

func (rsp *Response) write(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(rsp)
}
