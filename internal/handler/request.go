package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"hrdesk-backend/internal/ports"
	"hrdesk-backend/internal/server/authctx"
	"hrdesk-backend/internal/service"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

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

// decodeJSON reads and validates the request body, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "request body is required")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid payload")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			writeError(w, http.StatusBadRequest, "invalid payload")
			return false
		}
		root := structName(dst)
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fieldPath(fe, root)] = validationMessage(fe)
		}
		writeRawJSON(w, http.StatusBadRequest, apiResponse{Success: false, Message: "validation failed", Errors: fields})
		return false
	}
	return true
}

// structName is the type name of the decoded struct, empty for anonymous request structs.
func structName(dst any) string {
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// fieldPath drops the root struct name from the namespace ("invitationRequest.email" -> "email").
// Anonymous structs carry no root, so their namespace is already the field path.
func fieldPath(fe validator.FieldError, root string) string {
	ns := fe.Namespace()
	if root != "" {
		ns = strings.TrimPrefix(ns, root+".")
	}
	if ns == "" {
		return fe.Field()
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be at least " + fe.Param()
	case "len":
		return "must have length " + fe.Param()
	case "numeric":
		return "must contain digits only"
	case "url":
		return "must be a valid URL"
	default:
		return "is invalid"
	}
}

func pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+key)
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive id query parameter.
func queryID(w http.ResponseWriter, r *http.Request, key string) (*int64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid "+key)
		return nil, false
	}
	return &id, true
}

type pageQuery struct {
	Page  int
	Limit int
}

func (p pageQuery) ports() ports.Page {
	return ports.Page{Limit: p.Limit, Offset: (p.Page - 1) * p.Limit}
}

func parsePage(r *http.Request) pageQuery {
	p := pageQuery{Page: 1, Limit: 20}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		p.Limit = min(v, 100)
	}
	return p
}

// currentActor returns the authenticated caller, writing a 401 when there is none.
func currentActor(w http.ResponseWriter, r *http.Request) (service.Actor, bool) {
	u := authctx.FromContext(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return service.Actor{}, false
	}
	return service.Actor{UserID: u.ID, StaffID: u.StaffID, Email: u.Email, Role: u.Role}, true
}
