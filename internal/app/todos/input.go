package todos

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// inputValidate checks request bodies before any store access. The
// "priority" tag accepts the three enum values.
var inputValidate *validator.Validate

func init() {
	inputValidate = validator.New()
	_ = inputValidate.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
		_, ok := ParsePriority(fl.Field().String())
		return ok
	})
}

type CreateInput struct {
	Title         string   `json:"title" validate:"required"`
	UserID        string   `json:"userId" validate:"required"`
	Description   string   `json:"description"`
	Priority      string   `json:"priority" validate:"omitempty,priority"`
	Completed     bool     `json:"completed"`
	Tags          []string `json:"tags"`
	AssignedUsers []string `json:"assignedUsers"`
}

// UpdateInput holds the fields of a partial update. A nil field is left
// unchanged; the owner cannot be changed.
type UpdateInput struct {
	Title         *string   `json:"title" validate:"omitnil,min=1"`
	Description   *string   `json:"description"`
	Priority      *string   `json:"priority" validate:"omitnil,priority"`
	Completed     *bool     `json:"completed"`
	Tags          *[]string `json:"tags"`
	AssignedUsers *[]string `json:"assignedUsers"`
}

type NoteInput struct {
	Content string `json:"content" validate:"required"`
	UserID  string `json:"userId"`
}

func (in *CreateInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.UserID = strings.TrimSpace(in.UserID)
	in.Priority = strings.TrimSpace(in.Priority)
}

func (in *UpdateInput) normalize() {
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
	}
	if in.Priority != nil {
		priority := strings.TrimSpace(*in.Priority)
		in.Priority = &priority
	}
}

func (in *NoteInput) normalize() {
	in.Content = strings.TrimSpace(in.Content)
	in.UserID = strings.TrimSpace(in.UserID)
}

// validateInput runs the struct tags and maps the first failing field to its
// domain error.
func validateInput(in any) error {
	err := inputValidate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	switch fe := fieldErrs[0]; fe.StructField() {
	case "Title":
		return ErrTitleRequired
	case "UserID":
		return ErrOwnerRequired
	case "Content":
		return ErrContentRequired
	case "Priority":
		return &DetailError{Err: ErrInvalidPriority, Details: "unknown priority " + strconv.Quote(fieldString(fe.Value()))}
	default:
		return err
	}
}

func fieldString(v any) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return ""
	}
	return fmt.Sprint(rv.Interface())
}
