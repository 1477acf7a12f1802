package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/emporia/emporia/internal/imagehost"
	"github.com/emporia/emporia/pkg/model"
)

// validate is the singleton validator instance used across all handlers.
var validate *validator.Validate

// formDecoder fills structs from form bodies and query strings.
var formDecoder *schema.Decoder

// multipartMemory is how much of a multipart body is kept in memory before
// spilling files to disk.
const multipartMemory = 8 << 20

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	formDecoder = schema.NewDecoder()
	formDecoder.IgnoreUnknownKeys(true)
}

// ValidationError wraps validation errors with user-friendly messages.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors contains multiple validation errors. It matches
// model.ErrValidation so the responder maps it to 400.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	var msgs []string
	for _, e := range v.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(msgs, "; ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == model.ErrValidation
}

// translateValidationError converts a validator.FieldError to a user-friendly message.
func translateValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "min":
		if fe.Kind().String() == "slice" {
			return fmt.Sprintf("Must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "email":
		return "Must be a valid email address"
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("Failed validation: %s", fe.Tag())
	}
}

// formatValidationErrors converts validator errors to ValidationErrors.
func formatValidationErrors(err error) ValidationErrors {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return ValidationErrors{
			Errors: []ValidationError{{Field: "unknown", Message: err.Error()}},
		}
	}

	var valErrors []ValidationError
	for _, fe := range ve {
		valErrors = append(valErrors, ValidationError{
			Field:   fe.Field(),
			Message: translateValidationError(fe),
		})
	}
	return ValidationErrors{Errors: valErrors}
}

// decodeAndValidate decodes a JSON or form request body and validates it.
func decodeAndValidate[T any](r *http.Request) (*T, error) {
	var req T
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// decodeQuery fills dst from the URL query string and validates it.
func decodeQuery(r *http.Request, dst interface{}) error {
	if err := formDecoder.Decode(dst, r.URL.Query()); err != nil {
		return model.Wrap(model.ErrValidation, err, "Invalid query parameters")
	}
	return validateStruct(dst)
}

// validateStruct validates a struct and returns user-friendly errors.
func validateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

// decodeBody reads JSON, urlencoded or multipart bodies into dst.
func decodeBody(r *http.Request, dst interface{}) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return model.Wrap(model.ErrValidation, err, "Invalid multipart body")
		}
		if err := formDecoder.Decode(dst, r.MultipartForm.Value); err != nil {
			return model.Wrap(model.ErrValidation, err, "Invalid form fields")
		}
		return nil
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return model.Wrap(model.ErrValidation, err, "Invalid form body")
		}
		if err := formDecoder.Decode(dst, r.PostForm); err != nil {
			return model.Wrap(model.ErrValidation, err, "Invalid form fields")
		}
		return nil
	default:
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return model.Wrap(model.ErrValidation, err, "Request body too large")
			}
			if errors.Is(err, io.EOF) {
				return model.Errorf(model.ErrValidation, "Request body is required")
			}
			return model.Wrap(model.ErrValidation, err, "Invalid request body")
		}
		return nil
	}
}

// formImages returns the files posted under field as data URIs, in the
// order they were sent. Non-multipart requests have none.
func formImages(r *http.Request, field string) ([]string, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var out []string
	for _, fh := range r.MultipartForm.File[field] {
		f, err := fh.Open()
		if err != nil {
			return nil, model.Wrap(model.ErrValidation, err, "Invalid image upload")
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, model.Wrap(model.ErrValidation, err, "Invalid image upload")
		}
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		out = append(out, imagehost.EncodeDataURI(contentType, data))
	}
	return out, nil
}

// formHas reports whether a form body named field at all.
func formHas(r *http.Request, field string) bool {
	if r.MultipartForm != nil {
		_, v := r.MultipartForm.Value[field]
		_, f := r.MultipartForm.File[field]
		return v || f
	}
	if r.PostForm != nil {
		_, ok := r.PostForm[field]
		return ok
	}
	return false
}
