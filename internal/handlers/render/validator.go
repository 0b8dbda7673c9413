package render

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Reason is the structural cause of a field failure
type Reason int

const (
	ReasonMissing Reason = iota
	ReasonWrongType
	ReasonInvalidFormat
	ReasonTooSmall
	ReasonTooLarge
	ReasonInvalid
)

// FieldMessage renders human sentence for the failed field
// Clients show these sentences as is, so keep them stable
//
//	param is expected type for ReasonWrongType, format for ReasonInvalidFormat
//	and bound for ReasonTooSmall, ReasonTooLarge; strings are bounded by length
func FieldMessage(path string, reason Reason, param string, isString bool) string {
	switch reason {
	case ReasonMissing:
		return fmt.Sprintf("Field '%s' is required.", path)
	case ReasonWrongType:
		article := "a"
		if param == "array" || param == "object" {
			article = "an"
		}
		return fmt.Sprintf("Field '%s' must be %s %s.", path, article, param)
	case ReasonInvalidFormat:
		if param == "email" {
			return fmt.Sprintf("Field '%s' must be a valid email address.", path)
		}
		return fmt.Sprintf("Field '%s' has an invalid format.", path)
	case ReasonTooSmall:
		if isString {
			return fmt.Sprintf("Field '%s' must be at least %s characters long.", path, param)
		}
		return fmt.Sprintf("Field '%s' must be greater than or equal to %s.", path, param)
	case ReasonTooLarge:
		if isString {
			return fmt.Sprintf("Field '%s' must be at most %s characters long.", path, param)
		}
		return fmt.Sprintf("Field '%s' must be less than or equal to %s.", path, param)
	default:
		return fmt.Sprintf("Field '%s' is invalid.", path)
	}
}

// fieldErrorMessage maps validator tag to the reason
func fieldErrorMessage(fe validator.FieldError) string {
	path := fieldPath(fe.Namespace())
	isString := fe.Kind() == reflect.String

	switch fe.Tag() {
	case "required":
		return FieldMessage(path, ReasonMissing, "", isString)
	case "email":
		return FieldMessage(path, ReasonInvalidFormat, "email", isString)
	case "min", "gte":
		// Non empty string is the same as required one
		if isString && fe.Param() == "1" {
			return FieldMessage(path, ReasonMissing, "", isString)
		}
		return FieldMessage(path, ReasonTooSmall, fe.Param(), isString)
	case "max", "lte":
		return FieldMessage(path, ReasonTooLarge, fe.Param(), isString)
	default:
		return FieldMessage(path, ReasonInvalid, "", isString)
	}
}

// fieldPath drops root struct name from validator namespace: 'loginRequest.items[0].name' -> 'items[0].name'
func fieldPath(namespace string) string {
	if _, path, ok := strings.Cut(namespace, "."); ok {
		return path
	}
	return namespace
}

// fieldIndex is position of the top level field the path starts with, unknown fields go last
func fieldIndex(t reflect.Type, path string) int {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return 0
	}

	name := path
	if i := strings.IndexAny(path, ".["); i >= 0 {
		name = path[:i]
	}

	for i := 0; i < t.NumField(); i++ {
		if jsonName(t.Field(i)) == name {
			return i
		}
	}
	return t.NumField()
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" {
		return f.Name
	}
	return name
}

// typeName is JSON name of Go kind as clients know it
func typeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return "value"
	}
}

// jsonFieldPath converts encoding/json field path 'items.0.name' to 'items[0].name'
func jsonFieldPath(field string) string {
	if field == "" {
		return field
	}

	parts := strings.Split(field, ".")
	var b strings.Builder
	for i, part := range parts {
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}
