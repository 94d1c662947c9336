package handler

// Request validation lives next to the handlers that use it. Each function
// collects every violation into a human-readable list so clients can render
// all field errors at once instead of fixing them one round-trip at a time.

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/iliyamo/task-manager-api/internal/model"
)

const (
	nameMin        = 2
	nameMax        = 50
	passwordMin    = 6
	passwordMax    = 100
	titleMax       = 100
	descriptionMax = 500
)

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func validateName(name string, errs []string) []string {
	switch n := len(strings.TrimSpace(name)); {
	case n == 0:
		errs = append(errs, "Name is required")
	case n < nameMin:
		errs = append(errs, fmt.Sprintf("Name must be at least %d characters long", nameMin))
	case n > nameMax:
		errs = append(errs, fmt.Sprintf("Name cannot exceed %d characters", nameMax))
	}
	return errs
}

func validateNewPassword(pw, label string, errs []string) []string {
	switch {
	case pw == "":
		errs = append(errs, label+" is required")
	case len(pw) < passwordMin:
		errs = append(errs, fmt.Sprintf("%s must be at least %d characters long", label, passwordMin))
	case len(pw) > passwordMax:
		errs = append(errs, fmt.Sprintf("%s cannot exceed %d characters", label, passwordMax))
	}
	return errs
}

func validateRegister(req registerReq) []string {
	var errs []string
	errs = validateName(req.Name, errs)
	if req.Email == "" {
		errs = append(errs, "Email is required")
	} else if !validEmail(req.Email) {
		errs = append(errs, "Please provide a valid email")
	}
	errs = validateNewPassword(req.Password, "Password", errs)
	if req.Role != "" && req.Role != model.RoleUser && req.Role != model.RoleAdmin {
		errs = append(errs, "Role must be either user or admin")
	}
	return errs
}

func validateLogin(req loginReq) []string {
	var errs []string
	if req.Email == "" {
		errs = append(errs, "Email is required")
	} else if !validEmail(req.Email) {
		errs = append(errs, "Please provide a valid email")
	}
	if req.Password == "" {
		errs = append(errs, "Password is required")
	}
	return errs
}

func validateProfile(req profileReq) []string {
	var errs []string
	if req.Name == nil && req.Email == nil {
		return []string{"At least one field must be provided"}
	}
	if req.Name != nil {
		errs = validateName(*req.Name, errs)
	}
	if req.Email != nil && !validEmail(*req.Email) {
		errs = append(errs, "Please provide a valid email")
	}
	return errs
}

func validateChangePassword(req passwordReq) []string {
	var errs []string
	if req.CurrentPassword == "" {
		errs = append(errs, "Current password is required")
	}
	errs = validateNewPassword(req.NewPassword, "New password", errs)
	return errs
}

func validateTaskCreate(req taskCreateReq) []string {
	var errs []string
	switch n := len(strings.TrimSpace(req.Title)); {
	case n == 0:
		errs = append(errs, "Task title is required")
	case n > titleMax:
		errs = append(errs, fmt.Sprintf("Title cannot exceed %d characters", titleMax))
	}
	if len(req.Description) > descriptionMax {
		errs = append(errs, fmt.Sprintf("Description cannot exceed %d characters", descriptionMax))
	}
	if req.Status != "" && !model.ValidStatus(req.Status) {
		errs = append(errs, "Status must be one of: pending, in-progress, completed")
	}
	if req.Priority != "" && !model.ValidPriority(req.Priority) {
		errs = append(errs, "Priority must be one of: low, medium, high")
	}
	return errs
}

func validateTaskUpdate(req taskUpdateReq) []string {
	var errs []string
	if req.Title == nil && req.Description == nil && req.Status == nil &&
		req.Priority == nil && req.DueDate == nil && req.Tags == nil {
		return []string{"At least one field must be provided"}
	}
	if req.Title != nil {
		switch n := len(strings.TrimSpace(*req.Title)); {
		case n == 0:
			errs = append(errs, "Task title is required")
		case n > titleMax:
			errs = append(errs, fmt.Sprintf("Title cannot exceed %d characters", titleMax))
		}
	}
	if req.Description != nil && len(*req.Description) > descriptionMax {
		errs = append(errs, fmt.Sprintf("Description cannot exceed %d characters", descriptionMax))
	}
	if req.Status != nil && !model.ValidStatus(*req.Status) {
		errs = append(errs, "Status must be one of: pending, in-progress, completed")
	}
	if req.Priority != nil && !model.ValidPriority(*req.Priority) {
		errs = append(errs, "Priority must be one of: low, medium, high")
	}
	return errs
}
