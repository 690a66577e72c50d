package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const maxBody = 1 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fail(w http.ResponseWriter, req *http.Request, status int, code, detail string) {
	render.Status(req, status)
	render.JSON(w, req, map[string]any{"error": code, "detail": detail})
}

// decodeJSON reads a bounded JSON body into dst and validates it. It writes
// the 400 itself and reports false on failure.
func decodeJSON(w http.ResponseWriter, req *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(req.Body, maxBody))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		fail(w, req, http.StatusBadRequest, "invalid_json", err.Error())
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			fail(w, req, http.StatusBadRequest, "invalid_request", describe(ve))
			return false
		}
		// Non-struct destinations have nothing to validate.
		var inv *validator.InvalidValidationError
		if !errors.As(err, &inv) {
			fail(w, req, http.StatusBadRequest, "invalid_request", err.Error())
			return false
		}
	}
	return true
}

func describe(ve validator.ValidationErrors) string {
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

func queryInt(req *http.Request, k string, def int) int {
	if v := req.URL.Query().Get(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func defInt(v *int, d int) int {
	if v == nil {
		return d
	}
	return *v
}
