// Package handlers implements the molscope REST endpoints on top of the
// viewer application service.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/turtacn/molscope/internal/application/viewer"
	"github.com/turtacn/molscope/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molscope/pkg/errors"
)

// DefaultMaxBodySize bounds request bodies when the handler is built with 0.
const DefaultMaxBodySize int64 = 4 << 20

// writeJSON encodes data before any header is sent. A value that cannot be
// encoded becomes a 500 serialization error instead of a truncated body.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	var body []byte
	if data != nil {
		var err error
		body, err = json.Marshal(data)
		if err != nil {
			logging.Default().Error("Response encoding failed", logging.Err(err))
			statusCode = http.StatusInternalServerError
			body, _ = json.Marshal(ErrorResponse{
				Code:    errors.ErrCodeSerialization.String(),
				Message: errors.DefaultMessageForCode(errors.ErrCodeSerialization),
			})
		}
		body = append(body, '\n')
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, statusCode int, code errors.ErrorCode, message string) {
	writeJSON(w, statusCode, ErrorResponse{Code: code.String(), Message: message})
}

// writeAppError maps err to its HTTP status. Server-side failures keep their
// code but only the default message is sent; the cause goes to the log.
func writeAppError(w http.ResponseWriter, logger logging.Logger, err error) {
	var ae *errors.AppError
	if !stderrors.As(err, &ae) {
		logger.Error("Unhandled error", logging.Err(err))
		writeError(w, http.StatusInternalServerError, errors.ErrCodeInternal, errors.DefaultMessageForCode(errors.ErrCodeInternal))
		return
	}
	status := ae.HTTPStatus()
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			logging.String(logging.FieldErrorCode, ae.Code.String()),
			logging.Err(err))
		writeJSON(w, status, ErrorResponse{Code: ae.Code.String(), Message: errors.DefaultMessageForCode(ae.Code)})
		return
	}
	writeJSON(w, status, ErrorResponse{Code: ae.Code.String(), Message: ae.Message, Detail: ae.Detail})
}

// BuildRequest is the JSON form of a scene build. Exactly one of MolBlock and
// SMILES is expected; MolBlock wins when both are set.
type BuildRequest struct {
	MolBlock string  `json:"mol_block,omitempty"`
	SMILES   string  `json:"smiles,omitempty"`
	FOV      float64 `json:"fov,omitempty"`
}

// decodeBuildInput reads a build request. application/json bodies decode as
// BuildRequest; any other content type is taken as the raw record text. The
// fov query parameter overrides the body.
func decodeBuildInput(w http.ResponseWriter, r *http.Request, maxBody int64) (*viewer.BuildInput, *errors.AppError) {
	if maxBody <= 0 {
		maxBody = DefaultMaxBodySize
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.New(errors.ErrCodePayloadTooLarge, "request body too large").
				WithDetail("limit=" + strconv.FormatInt(tooLarge.Limit, 10))
		}
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "failed to read request body")
	}

	in := &viewer.BuildInput{}
	if isJSON(r.Header.Get("Content-Type")) {
		var req BuildRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, errors.New(errors.ErrCodeBadRequest, "invalid request body").WithDetail(err.Error())
		}
		in.Record, in.SMILES, in.FOV = req.MolBlock, req.SMILES, req.FOV
	} else {
		in.Record = string(body)
	}

	if v := r.URL.Query().Get("fov"); v != "" {
		fov, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New(errors.ErrCodeBadRequest, "fov must be a number").WithDetail(v)
		}
		in.FOV = fov
	}

	if strings.TrimSpace(in.Record) == "" && strings.TrimSpace(in.SMILES) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "a structure record or SMILES string is required")
	}
	return in, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

//Personal.AI order the ending
