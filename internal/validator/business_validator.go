package validator

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/go-playground/validator/v10"
)

const (
	minBudget = models.MinProjectBudget
	minPrice  = models.MinStudentPrice
)

// BusinessValidator handles business rule validation
type BusinessValidator struct {
	validate *validator.Validate
}

// NewBusinessValidator creates a new business validator
func NewBusinessValidator() *BusinessValidator {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	bv := &BusinessValidator{validate: validate}
	bv.registerBusinessRules()

	return bv
}

// Validate validates business rules for any struct
func (bv *BusinessValidator) Validate(s interface{}) ValidationErrors {
	err := bv.validate.Struct(s)
	if err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// ValidateID checks that id is a well-formed identifier.
func (bv *BusinessValidator) ValidateID(field, id string) ValidationErrors {
	if err := bv.validate.Var(id, "required,uuid"); err != nil {
		return NewValidationError(field, "must be a valid identifier", id)
	}
	return nil
}

// ValidateRegistration validates the role-conditional registration rules
func (bv *BusinessValidator) ValidateRegistration(req *RegisterRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if req.Role != models.RoleStudent {
		return errors
	}

	if req.StudentID == nil || strings.TrimSpace(*req.StudentID) == "" {
		errors = append(errors, ValidationError{
			Field:   "student_id",
			Message: "is required for students",
			Rule:    "required_if_student",
		})
	}
	if len(req.Skills) == 0 {
		errors = append(errors, ValidationError{
			Field:   "skills",
			Message: "at least one skill is required for students",
			Rule:    "required_if_student",
		})
	}
	if req.Price == nil {
		errors = append(errors, ValidationError{
			Field:   "price",
			Message: "is required for students",
			Rule:    "required_if_student",
		})
	} else if *req.Price < minPrice {
		errors = append(errors, ValidationError{
			Field:   "price",
			Message: fmt.Sprintf("must be at least %d", minPrice),
			Value:   *req.Price,
			Rule:    "student_price",
		})
	}

	return errors
}

// ValidateProfileUpdate rejects student-only fields for other roles
func (bv *BusinessValidator) ValidateProfileUpdate(req *UpdateProfileRequest, role models.UserRole) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.Validate(req)...)

	if role != models.RoleStudent && (req.Skills != nil || req.Price != nil || req.OpenForWork != nil) {
		errors = append(errors, ValidationError{
			Field:   "role",
			Message: "only students can set skills, price or availability",
			Value:   role,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateStatusTransition validates project status transitions. Only the
// owner drives the lifecycle except for submitting work for review, which
// the assigned freelancer does.
func (bv *BusinessValidator) ValidateStatusTransition(project *models.Project, newStatus models.ProjectStatus, actorIsOwner bool) ValidationErrors {
	var errors ValidationErrors

	if !project.Status.CanTransitionTo(newStatus) {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot transition from %s to %s", project.Status, newStatus),
			Value:   newStatus,
			Rule:    "status_transition",
		})
	}

	if newStatus == models.ProjectInProgress && project.Status == models.ProjectOpen && project.AssignedTo == nil {
		errors = append(errors, ValidationError{
			Field:   "assigned_to",
			Message: "a freelancer must be assigned before work starts",
			Rule:    "business_logic",
		})
	}

	if !actorIsOwner && newStatus != models.ProjectAwaiting {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "freelancers can only submit work for review",
			Value:   newStatus,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateProjectEditable validates that a project can still be edited or deleted
func (bv *BusinessValidator) ValidateProjectEditable(project *models.Project) ValidationErrors {
	if project.Status != models.ProjectOpen {
		return ValidationErrors{{
			Field:   "status",
			Message: "only open projects can be changed",
			Value:   project.Status,
			Rule:    "business_logic",
		}}
	}
	return nil
}

// registerBusinessRules registers custom business rule validators
func (bv *BusinessValidator) registerBusinessRules() {
	bv.validate.RegisterValidation("project_budget", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() >= minBudget
	})

	bv.validate.RegisterValidation("student_price", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() >= minPrice
	})

	bv.validate.RegisterValidation("not_blank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	bv.validate.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).IsValid()
	})

	bv.validate.RegisterValidation("project_status", func(fl validator.FieldLevel) bool {
		return models.ProjectStatus(fl.Field().String()).IsValid()
	})

	bv.validate.RegisterValidation("notification_type", func(fl validator.FieldLevel) bool {
		return models.NotificationType(fl.Field().String()).IsValid()
	})

	// Deadline validation (must be in future)
	bv.validate.RegisterValidation("future_date", func(fl validator.FieldLevel) bool {
		field := fl.Field()

		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				return true
			}
			field = field.Elem()
		}

		t, ok := field.Interface().(time.Time)
		if !ok {
			return false
		}
		return t.After(time.Now())
	})
}
