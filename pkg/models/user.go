package models

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// User is an account record: profile, login emails and per-project role
// assignments.
type User struct {
	ID        uuid.UUID        `json:"id"`
	Profile   UserProfile      `json:"profile"`
	Emails    []UserEmail      `json:"emails"`
	Roles     []RoleAssignment `json:"roles"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// UserProfile holds the displayed name fields.
type UserProfile struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserEmail is a login email address. Verified is computed server-side and
// never taken from client input on creation.
type UserEmail struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
}

// RoleAssignment grants one or more roles within a project scope. Project is
// a project UUID string, or ProjectScopeGlobal for platform-wide grants.
type RoleAssignment struct {
	Roles   []string `json:"roles"`
	Project string   `json:"project"`
}

// ProjectScopeGlobal marks a role assignment that applies across all projects.
const ProjectScopeGlobal = "GLOBAL"

// UserValidationContext is a snapshot of the live system state the user
// validators check against: the currently defined role names and project
// identifiers. Building the snapshot up front keeps the validators pure.
type UserValidationContext struct {
	RoleNames  []string
	ProjectIDs []string
}

// AssignableRoles returns the role names a user may be granted directly.
// Names shaped like scope:action are fine-grained permissions managed by the
// access layer, not assignable roles.
func (c *UserValidationContext) AssignableRoles() []string {
	out := make([]string, 0, len(c.RoleNames))
	for _, name := range c.RoleNames {
		if strings.Contains(name, ":") {
			continue
		}
		out = append(out, name)
	}
	return out
}

func (c *UserValidationContext) validProject(project string) bool {
	if project == ProjectScopeGlobal {
		return true
	}
	for _, id := range c.ProjectIDs {
		if id == project {
			return true
		}
	}
	return false
}

// ValidateUserCreate validates a user record for creation. Verification
// flags on emails are reset rather than rejected.
func ValidateUserCreate(user *User, vctx *UserValidationContext) error {
	if user == nil {
		return validation.NewError("validation_nil_user", "user is required")
	}
	for i := range user.Emails {
		user.Emails[i].Verified = false
	}
	return validateUser(user, vctx)
}

// ValidateUserEdit validates a user record for an edit. The verification
// flag on each email is preserved as submitted.
func ValidateUserEdit(user *User, vctx *UserValidationContext) error {
	if user == nil {
		return validation.NewError("validation_nil_user", "user is required")
	}
	return validateUser(user, vctx)
}

func validateUser(user *User, vctx *UserValidationContext) error {
	if err := validation.ValidateStruct(&user.Profile,
		validation.Field(&user.Profile.FirstName, validation.Required),
		validation.Field(&user.Profile.LastName, validation.Required),
	); err != nil {
		return err
	}

	if err := validation.ValidateStruct(user,
		validation.Field(&user.Emails, validation.Required, validation.Length(1, 0)),
		validation.Field(&user.Roles, validation.Required, validation.Length(1, 0)),
	); err != nil {
		return err
	}

	for i := range user.Emails {
		if err := validation.ValidateStruct(&user.Emails[i],
			validation.Field(&user.Emails[i].Address, validation.Required, is.EmailFormat),
		); err != nil {
			return err
		}
	}

	assignable := vctx.AssignableRoles()
	for i := range user.Roles {
		if err := validateRoleAssignment(&user.Roles[i], assignable, vctx); err != nil {
			return err
		}
	}
	return nil
}

func validateRoleAssignment(ra *RoleAssignment, assignable []string, vctx *UserValidationContext) error {
	if err := validation.ValidateStruct(ra,
		validation.Field(&ra.Roles, validation.Required, validation.Length(1, 0)),
		validation.Field(&ra.Project, validation.Required),
	); err != nil {
		return err
	}

	for _, role := range ra.Roles {
		if !containsString(assignable, role) {
			return validation.NewError("validation_unknown_role",
				fmt.Sprintf("role %q is not assignable", role))
		}
	}

	if !vctx.validProject(ra.Project) {
		return validation.NewError("validation_unknown_project",
			fmt.Sprintf("project %q does not exist", ra.Project))
	}
	return nil
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
