package models

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TaskStatus represents the possible statuses of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "To-Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

// Valid reports whether s is one of the three accepted status literals.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// DefaultPriority is assigned to tasks whose priority is missing or blank.
const DefaultPriority = "Medium"

// Field limits, counted in characters.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	MaxPriorityLength    = 20
	MaxTagLength         = 20
	MaxTaskTags          = 10
	MaxDateLength        = 30
)

// Task represents a single todo entry.
// ID is caller-assigned (usually a millisecond timestamp) and only needs to be finite.
type Task struct {
	ID          float64    `json:"id" toml:"id" yaml:"id" validate:"finite"`
	Title       string     `json:"title" toml:"title" yaml:"title" validate:"required,max=100"`
	Status      TaskStatus `json:"status" toml:"status" yaml:"status" validate:"required,oneof='To-Do' 'In Progress' 'Done'"`
	Priority    string     `json:"priority" toml:"priority" yaml:"priority" validate:"required,max=20"`
	Description string     `json:"description" toml:"description" yaml:"description" validate:"max=500"`
	Tags        []string   `json:"tags" toml:"tags" yaml:"tags" validate:"max=10,unique,dive,min=1,max=20"`
	Deadline    *string    `json:"deadline" toml:"deadline,omitempty" yaml:"deadline" validate:"omitempty,max=30"`
	CreatedAt   string     `json:"createdAt" toml:"createdAt" yaml:"createdAt" validate:"max=30"`
}

// HasTag reports whether the task carries tag.
func (t Task) HasTag(tag string) bool {
	for _, v := range t.Tags {
		if v == tag {
			return true
		}
	}
	return false
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = newValidator()
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		if fl.Field().Kind() != reflect.Float64 {
			return false
		}
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// ValidateStruct performs validation on any struct that has validation tags.
func ValidateStruct(s interface{}) error {
	if validate == nil {
		validate = newValidator()
	}
	err := validate.Struct(s)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var errorMessages []string
		for _, e := range validationErrors {
			errorMessages = append(errorMessages, fmt.Sprintf("Validation failed on field '%s': rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(errorMessages, "; "))
	}
	return nil
}
