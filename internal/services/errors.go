package services

import (
	"errors"
	"fmt"

	"github.com/campus-gigs/marketplace-service/internal/validator"
)

type ValidationError = validator.ValidationError
type ValidationErrors = validator.ValidationErrors

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrNotificationNotFound = errors.New("notification not found")

	ErrDuplicateApplication = errors.New("you have already requested to join this project")
	ErrDuplicateInvitation  = errors.New("this freelancer has already been invited to the project")
	ErrEmailTaken           = errors.New("email is already registered")
	ErrStudentIDTaken       = errors.New("student id is already registered")

	ErrInvalidCode             = errors.New("verification code is invalid or expired")
	ErrAccountNotFound         = errors.New("no account is registered for this email")
	ErrUnknownNotificationType = errors.New("unknown notification type")
	ErrRequestAlreadyAnswered  = errors.New("request has already been answered")
	ErrGalleryFull             = errors.New("gallery is full")
	ErrMailUnavailable         = errors.New("verification mail could not be sent")
)

// PermissionError reports that userID may not perform action on a resource.
type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID string `json:"resource_id,omitempty"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func NewPermissionError(userID, resourceID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s %s: %s", e.UserID, e.Action, e.Resource, e.ResourceID, e.Reason)
}

// BusinessRuleError reports a request that is well formed but not allowed
// in the current state.
type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{Rule: rule, Message: message, Context: context}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}
