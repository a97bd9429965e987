package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var positiveInt = regexp.MustCompile(`^[1-9][0-9]*$`)

// ListQuery holds the raw query parameters of the list endpoint.
type ListQuery struct {
	Paginate string `json:"paginate"`
	Page     string `json:"page"`
	Limit    string `json:"limit"`
}

func (q ListQuery) Validate() error {
	paginated := q.Paginate == "true"
	pageMsg := "Invalid value provided for field page"
	limitMsg := "Invalid value provided for field limit"

	return validation.ValidateStruct(&q,
		validation.Field(&q.Paginate,
			validation.In("true", "false").Error("Invalid value provided for field paginate")),
		validation.Field(&q.Page,
			validation.When(paginated, validation.Required.Error(pageMsg)),
			validation.Match(positiveInt).Error(pageMsg),
			fitsInt(pageMsg)),
		validation.Field(&q.Limit,
			validation.When(paginated, validation.Required.Error(limitMsg)),
			validation.Match(positiveInt).Error(limitMsg),
			fitsInt(limitMsg)),
	)
}

// fitsInt rejects numerals that overflow int.
func fitsInt(msg string) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		if _, err := strconv.Atoi(s); err != nil {
			return validation.NewError("validation_int_range", msg)
		}
		return nil
	})
}

// Options converts a validated query. Page and limit only matter when paginating.
func (q ListQuery) Options() ListOptions {
	if q.Paginate != "true" {
		return ListOptions{Mode: ListModeAll, Page: 1}
	}
	page, _ := strconv.Atoi(q.Page)
	limit, _ := strconv.Atoi(q.Limit)
	return ListOptions{Mode: ListModePaginated, Page: page, Limit: limit}
}

// UpdateDocRequest is the PATCH body. Absent fields leave the stored values alone.
type UpdateDocRequest struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Variables   []VariableInput `json:"variables"`
}

type VariableInput struct {
	ID    string          `json:"_id"`
	Value json.RawMessage `json:"value"`
}

func (r UpdateDocRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Variables),
	)
}

func (v VariableInput) Validate() error {
	return validation.ValidateStruct(&v,
		validation.Field(&v.ID, validation.Required.Error(`Invalid value provided for field "variables.id"`)),
		validation.Field(&v.Value, validation.By(func(value interface{}) error {
			raw, _ := value.(json.RawMessage)
			if len(raw) == 0 || !isNull(raw) {
				return nil
			}
			return validation.NewError("validation_not_null", `Invalid value provided for field "variables.value"`)
		})),
	)
}

// Overrides converts the validated input into stored variable overrides.
func (r UpdateDocRequest) Overrides() []Variable {
	if r.Variables == nil {
		return nil
	}
	out := make([]Variable, 0, len(r.Variables))
	for _, v := range r.Variables {
		out = append(out, Variable{ID: ID(v.ID), Value: v.Value})
	}
	return out
}

// DecodeUpdateRequest parses a PATCH body. An empty body, null or {} yields
// ErrNoData; type mismatches are reported against the offending field.
func DecodeUpdateRequest(body []byte) (UpdateDocRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return UpdateDocRequest{}, ErrNoData
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return UpdateDocRequest{}, errors.New("Invalid request body")
	}
	if len(fields) == 0 {
		return UpdateDocRequest{}, ErrNoData
	}

	var req UpdateDocRequest
	if err := json.Unmarshal(body, &req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return UpdateDocRequest{}, fmt.Errorf("Invalid value provided for field %q", fieldLabel(typeErr.Field))
		}
		return UpdateDocRequest{}, errors.New("Invalid request body")
	}
	return req, nil
}

// ErrNoData is returned for a PATCH without any content.
var ErrNoData = errors.New("no data was posted")

func fieldLabel(field string) string {
	switch field {
	case "variables._id":
		return "variables.id"
	default:
		return field
	}
}

// ValidationMessage picks one deterministic, caller-facing message out of an
// ozzo validation error tree.
func ValidationMessage(err error) string {
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err.Error()
	}
	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if errs[k] == nil {
			continue
		}
		return ValidationMessage(errs[k])
	}
	return err.Error()
}
