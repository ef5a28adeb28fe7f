package folders

import (
	"strings"

	"github.com/google/uuid"

	"github.com/lexwatch/lexwatch-backend/internal/domain"
)

const maxFolderNameLen = 100

// CreateFolderInput holds the parameters for creating a folder.
type CreateFolderInput struct {
	Name            string
	ParentID        *uuid.UUID // nil = root
	ExpectedVersion *int64
}

// Validate checks all fields and collects all errors.
func (i CreateFolderInput) Validate() error {
	var errs []domain.FieldError

	name := strings.TrimSpace(i.Name)
	if name == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	}
	if len(name) > maxFolderNameLen {
		errs = append(errs, domain.FieldError{Field: "name", Message: "max 100 characters"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// RenameFolderInput holds the parameters for renaming a folder.
type RenameFolderInput struct {
	FolderID        uuid.UUID
	NewName         string
	ExpectedVersion *int64
}

// Validate checks all fields and collects all errors.
func (i RenameFolderInput) Validate() error {
	var errs []domain.FieldError

	if i.FolderID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "folder_id", Message: "required"})
	}
	name := strings.TrimSpace(i.NewName)
	if name == "" {
		errs = append(errs, domain.FieldError{Field: "new_name", Message: "required"})
	}
	if len(name) > maxFolderNameLen {
		errs = append(errs, domain.FieldError{Field: "new_name", Message: "max 100 characters"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// MoveFolderInput holds the parameters for reparenting a folder.
type MoveFolderInput struct {
	FolderID        uuid.UUID
	NewParentID     *uuid.UUID // nil = root
	ExpectedVersion *int64
}

// Validate checks all fields and collects all errors.
func (i MoveFolderInput) Validate() error {
	var errs []domain.FieldError

	if i.FolderID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "folder_id", Message: "required"})
	}
	if i.NewParentID != nil && *i.NewParentID == i.FolderID {
		errs = append(errs, domain.FieldError{Field: "new_parent_id", Message: "cannot move folder under itself"})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// DeleteFolderInput holds the parameters for deleting a folder.
type DeleteFolderInput struct {
	FolderID        uuid.UUID
	ExpectedVersion *int64
}

// Validate checks all fields and collects all errors.
func (i DeleteFolderInput) Validate() error {
	if i.FolderID == uuid.Nil {
		return domain.NewValidationError("folder_id", "required")
	}
	return nil
}

// AssignTagInput holds the parameters for filing a tag under a folder.
type AssignTagInput struct {
	TagName         string
	FolderID        *uuid.UUID // nil = unfiled (root)
	ExpectedVersion *int64
}

// Validate checks all fields and collects all errors.
func (i AssignTagInput) Validate() error {
	if strings.TrimSpace(i.TagName) == "" {
		return domain.NewValidationError("tag_name", "required")
	}
	return nil
}
