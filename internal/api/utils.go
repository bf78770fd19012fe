package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/FACorreiaa/devcamper-api/app/observability/metrics"
	"github.com/FACorreiaa/devcamper-api/internal/types"
	"github.com/FACorreiaa/devcamper-api/internal/validation"
)

const maxJSONBodyBytes = 1_048_576

// ErrorResponse writes the standard error envelope including the request ID.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := map[string]any{
		"success":    false,
		"error":      message,
		"request_id": middleware.GetReqID(r.Context()),
	}
	WriteJSONResponse(w, r, status, resp)
}

// HandleError translates an error into its HTTP status and envelope.
// Upstream and unexpected errors never leak their detail.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	ctx := r.Context()

	switch {
	case status >= http.StatusInternalServerError:
		slog.ErrorContext(ctx, "Request failed", slog.Any("error", err), slog.String("request_id", middleware.GetReqID(ctx)))
		if errors.Is(err, types.ErrUpstream) {
			metrics.Get().UpstreamFailuresTotal.Add(ctx, 1)
		}
	case status == http.StatusForbidden:
		metrics.Get().ForbiddenTotal.Add(ctx, 1)
	}
	ErrorResponse(w, r, status, message)
}

func statusFor(err error) (int, string) {
	var validationErr *types.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Error()
	}

	message := ""
	var domainErr *types.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	}
	withDefault := func(status int, fallback string) (int, string) {
		if message == "" {
			return status, fallback
		}
		return status, message
	}

	switch {
	case errors.Is(err, types.ErrUnauthenticated):
		return withDefault(http.StatusUnauthorized, "Not authorized to access this route")
	case errors.Is(err, types.ErrForbidden):
		return withDefault(http.StatusForbidden, "Not authorized to access this route")
	case errors.Is(err, types.ErrNotFound):
		return withDefault(http.StatusNotFound, "Resource not found")
	case errors.Is(err, types.ErrBadRequest), errors.Is(err, types.ErrValidation):
		return withDefault(http.StatusBadRequest, "Bad request")
	case errors.Is(err, types.ErrConflict):
		return withDefault(http.StatusConflict, "Duplicate field value entered")
	case errors.Is(err, types.ErrUpstream):
		return withDefault(http.StatusInternalServerError, "Server Error")
	}
	return http.StatusInternalServerError, "Server Error"
}

// WriteJSONResponse encodes the data to JSON and writes the response header and body.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data any) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	js, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// Success writes {"success": true, "data": data}.
func Success(w http.ResponseWriter, r *http.Request, status int, data any) {
	WriteJSONResponse(w, r, status, types.Response{Success: true, Data: data})
}

func badRequest(format string, args ...any) error {
	return types.NewError(types.ErrBadRequest, format, args...)
}

// DecodeJSONBody reads and decodes a JSON request body safely.
// Every returned error is of kind types.ErrBadRequest.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return badRequest("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return badRequest("body contains badly-formed JSON")

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return badRequest("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return badRequest("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

		case errors.Is(err, io.EOF):
			return badRequest("body must not be empty")

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return badRequest("body contains unknown key %q", fieldName)

		case errors.As(err, &maxBytesError):
			return badRequest("body must not be larger than %d bytes", maxBytesError.Limit)

		case errors.As(err, &invalidUnmarshalError):
			panic(fmt.Errorf("developer error: invalid argument passed to json.Unmarshal: %w", err))

		default:
			return badRequest("error decoding JSON body")
		}
	}

	if err = dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return badRequest("body must only contain a single JSON value")
	}
	return nil
}

// DecodeAndValidate decodes the body into dst and runs struct validation.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := DecodeJSONBody(w, r, dst); err != nil {
		return err
	}
	return validation.ValidateStruct(dst)
}

// URLParamID parses a path parameter as a resource id. Malformed ids are
// reported as missing resources.
func URLParamID(r *http.Request, name, kind string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, types.NewError(types.ErrNotFound, "No %s with the id of %s", kind, raw)
	}
	return id, nil
}
