package transport

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// MaxRequestBytes caps a /rpc body. Ingested documents travel inline.
const MaxRequestBytes = 8 << 20

// Request is a JSON-RPC 2.0 call. A request without an id is a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// IsNotification reports whether the caller expects no response.
func (r Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// Response is a JSON-RPC 2.0 reply carrying either Result or Error.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// DecodeRequest reads one request from r. Malformed JSON yields an
// ErrParseCode error and a structurally wrong call yields ErrInvalidReq.
func DecodeRequest(w http.ResponseWriter, r *http.Request) (Request, *Error) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes)).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return Request{}, &Error{Code: ErrInvalidReq, Message: "request body too large"}
		}
		return Request{}, &Error{Code: ErrParseCode, Message: "parse error"}
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return Request{}, &Error{Code: ErrInvalidReq, Message: "invalid request"}
	}
	return req, nil
}

// responseID echoes the caller's id verbatim.
func responseID(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// WriteResult writes a JSON-RPC success response.
func WriteResult(w http.ResponseWriter, id any, result any) {
	writeResponse(w, Response{JSONRPC: "2.0", Result: result, ID: id})
}

// WriteError writes a JSON-RPC error response.
func WriteError(w http.ResponseWriter, id any, rpcErr *Error) {
	writeResponse(w, Response{JSONRPC: "2.0", Error: rpcErr, ID: id})
}

func writeResponse(w http.ResponseWriter, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}
