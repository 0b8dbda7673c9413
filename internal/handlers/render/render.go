package render

import (
	"bytes"
	"cmp"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/nkiryanov/gatekeeper/internal/apperrors"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

const invalidJSONMessage = "Request body must be valid JSON."

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	// Return on 'TagName' json tag instead of struct name
	// Look at documentation of 'RegisterTagNameFunc' for more details
	validate.RegisterTagNameFunc(useJSONTagNames)
}

type Struct any

// Wire envelope of every failed API request
type ErrorResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error"`
	Message any    `json:"message"`
	Action  string `json:"action,omitempty"`
	ErrorID string `json:"error_id"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

func JSON(w http.ResponseWriter, data any) {
	jsonWithStatus(w, data, http.StatusOK)
}

// OK renders {"status": "ok"}
func OK(w http.ResponseWriter) {
	JSON(w, StatusResponse{Status: StatusOK})
}

// Error renders the error envelope
// BadRequestError carries list of messages, any other kind a single one
func Error(w http.ResponseWriter, err *apperrors.Error) {
	response := ErrorResponse{
		Status:  StatusError,
		Error:   string(err.Kind),
		Message: err.Message,
		Action:  err.Action,
		ErrorID: err.ErrorID,
	}
	if err.Kind == apperrors.KindBadRequest {
		messages := err.Messages
		if messages == nil {
			messages = []string{}
		}
		response.Message = messages
	}

	jsonWithStatus(w, response, err.StatusCode)
}

// DecodeError translates JSON decoding failure to BadRequestError
func DecodeError(err error) *apperrors.Error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		message := FieldMessage(jsonFieldPath(typeErr.Field), ReasonWrongType, typeName(typeErr.Type), false)
		return apperrors.NewBadRequest([]string{message})
	}

	return apperrors.NewBadRequest([]string{invalidJSONMessage})
}

// ValidationErrors translates validator failures to BadRequestError keeping fields order
func ValidationErrors(errs validator.ValidationErrors) *apperrors.Error {
	messages := make([]string, 0, len(errs))
	for _, fieldError := range errs {
		messages = append(messages, fieldErrorMessage(fieldError))
	}

	return apperrors.NewBadRequest(messages)
}

// BindAndValidate decodes JSON request body into type T and validates it using struct tags.
// Empty body is the same as '{}'. Failures are returned as BadRequestError ready to be rendered.
// Field of the wrong JSON type is reported along with the failures of the other fields.
func BindAndValidate[T Struct](r *http.Request) (T, error) {
	var value T

	var typeErr *json.UnmarshalTypeError
	err := json.NewDecoder(r.Body).Decode(&value)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		// Body decoded or empty
	case errors.As(err, &typeErr) && typeErr.Field != "":
		// Decoder goes on after type mismatch, so the rest of the fields are set and may be validated
	default:
		return value, DecodeError(err)
	}

	var fieldErrs validator.ValidationErrors
	if err := validate.Struct(value); err != nil && !errors.As(err, &fieldErrs) {
		return value, err
	}

	switch {
	case typeErr != nil:
		return value, withTypeError(reflect.TypeOf(value), typeErr, fieldErrs)
	case len(fieldErrs) > 0:
		return value, ValidationErrors(fieldErrs)
	default:
		return value, nil
	}
}

type orderedMessage struct {
	order int
	text  string
}

// withTypeError merges type mismatch with validation failures in struct field order
// Validation failures of the mistyped field itself are dropped: its zero value tells nothing
func withTypeError(t reflect.Type, typeErr *json.UnmarshalTypeError, errs validator.ValidationErrors) *apperrors.Error {
	typePath := jsonFieldPath(typeErr.Field)

	messages := []orderedMessage{{
		order: fieldIndex(t, typePath),
		text:  FieldMessage(typePath, ReasonWrongType, typeName(typeErr.Type), false),
	}}
	for _, fe := range errs {
		path := fieldPath(fe.Namespace())
		if path == typePath || strings.HasPrefix(path, typePath+".") || strings.HasPrefix(path, typePath+"[") {
			continue
		}
		messages = append(messages, orderedMessage{order: fieldIndex(t, path), text: fieldErrorMessage(fe)})
	}

	slices.SortStableFunc(messages, func(a, b orderedMessage) int {
		return cmp.Compare(a.order, b.order)
	})

	texts := make([]string, 0, len(messages))
	for _, m := range messages {
		texts = append(texts, m.text)
	}
	return apperrors.NewBadRequest(texts)
}

// jsonWithStatus sends data as json and enforces status code
func jsonWithStatus(w http.ResponseWriter, data any, code int) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)

	if err := enc.Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(buf.Bytes())
}
