// Package seed loads bootstrap users and escalation rules from YAML.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"property-service/internal/model"
	"property-service/pkg/logger"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// File is the top-level seed document
type File struct {
	Users           []User `yaml:"users" validate:"dive"`
	EscalationRules []Rule `yaml:"escalation_rules" validate:"dive"`
}

// User is an account to create with its roles
type User struct {
	Email     string   `yaml:"email" validate:"required,email"`
	Password  string   `yaml:"password" validate:"required"`
	FirstName string   `yaml:"first_name" validate:"required"`
	LastName  string   `yaml:"last_name"`
	Phone     string   `yaml:"phone"`
	Roles     []string `yaml:"roles" validate:"dive,oneof=admin manager agent owner tenant"`
}

// Rule is an escalation rule to create
type Rule struct {
	Name              string   `yaml:"name" validate:"required"`
	Description       string   `yaml:"description"`
	EntityType        string   `yaml:"entity_type" validate:"required"`
	ConditionField    string   `yaml:"condition_field"`
	ConditionOperator string   `yaml:"condition_operator"`
	ConditionValue    string   `yaml:"condition_value"`
	EscalationAction  string   `yaml:"escalation_action" validate:"required"`
	ThresholdDays     *int     `yaml:"threshold_days" validate:"omitempty,gte=0"`
	NotifyRoles       []string `yaml:"notify_roles" validate:"dive,oneof=admin manager agent owner tenant"`
	NotifyUsers       []string `yaml:"notify_users" validate:"dive,email"` // emails of seeded or existing users
	Inactive          bool     `yaml:"inactive"`
}

// Result counts what Apply wrote
type Result struct {
	UsersCreated int
	RolesGranted int
	RulesCreated int
}

var validate = newValidator()

// newValidator reports fields by their YAML path, e.g. users[0].email
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
	})
	return v
}

// LoadFile reads and validates a seed file
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a seed document. Unknown keys are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if err := file.validate(); err != nil {
		return nil, err
	}
	return &file, nil
}

func (f *File) validate() error {
	err := validate.Struct(f)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		path := strings.TrimPrefix(fe.Namespace(), "File.")
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, path+" is required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s: unknown role %q", path, fe.Value()))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s: %q is not a valid email address", path, fe.Value()))
		default:
			msgs = append(msgs, path+" is invalid")
		}
	}
	return fmt.Errorf("invalid seed file: %s", strings.Join(msgs, "; "))
}

// Apply writes the seed into db. Existing users (by email) only gain missing
// roles and existing rules (by name) are left untouched, so reapplying a file
// is harmless.
func Apply(ctx context.Context, db *gorm.DB, f *File, bcryptCost int) (Result, error) {
	log := logger.FromStdContext(ctx)
	var res Result

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range f.Users {
			created, granted, err := applyUser(tx, u, bcryptCost)
			if err != nil {
				return err
			}
			if created {
				res.UsersCreated++
			}
			res.RolesGranted += granted
		}
		for _, r := range f.EscalationRules {
			created, err := applyRule(tx, r)
			if err != nil {
				return err
			}
			if created {
				res.RulesCreated++
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log.Info("Seed applied",
		zap.Int("users_created", res.UsersCreated),
		zap.Int("roles_granted", res.RolesGranted),
		zap.Int("rules_created", res.RulesCreated))
	return res, nil
}

func applyUser(tx *gorm.DB, u User, cost int) (bool, int, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))

	var user model.User
	err := tx.Preload("Roles").Where("email = ?", email).Take(&user).Error
	created := false
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return false, 0, fmt.Errorf("hash password for %s: %w", email, err)
		}
		user = model.User{
			Email:        email,
			PasswordHash: string(hash),
			FirstName:    u.FirstName,
			LastName:     optional(u.LastName),
			Phone:        optional(u.Phone),
			IsActive:     true,
		}
		if err := tx.Create(&user).Error; err != nil {
			return false, 0, fmt.Errorf("create user %s: %w", email, err)
		}
		created = true
	case err != nil:
		return false, 0, fmt.Errorf("load user %s: %w", email, err)
	}

	have := map[string]bool{}
	for _, r := range user.Roles {
		have[r.RoleName] = true
	}
	roles := u.Roles
	if len(roles) == 0 && created {
		roles = []string{model.RoleTenant}
	}
	granted := 0
	for _, role := range roles {
		if have[role] {
			continue
		}
		have[role] = true
		if err := tx.Create(&model.UserRole{UserID: user.ID, RoleName: role}).Error; err != nil {
			return false, 0, fmt.Errorf("grant %s to %s: %w", role, email, err)
		}
		granted++
	}
	return created, granted, nil
}

func applyRule(tx *gorm.DB, r Rule) (bool, error) {
	var n int64
	if err := tx.Model(&model.EscalationRule{}).Where("name = ?", r.Name).Count(&n).Error; err != nil {
		return false, fmt.Errorf("check rule %q: %w", r.Name, err)
	}
	if n > 0 {
		return false, nil
	}

	var userIDs []string
	if len(r.NotifyUsers) > 0 {
		emails := make([]string, len(r.NotifyUsers))
		for i, e := range r.NotifyUsers {
			emails[i] = strings.ToLower(strings.TrimSpace(e))
		}
		if err := tx.Model(&model.User{}).Where("email IN ?", emails).Pluck("id", &userIDs).Error; err != nil {
			return false, fmt.Errorf("resolve notify_users for %q: %w", r.Name, err)
		}
		if len(userIDs) != len(emails) {
			return false, fmt.Errorf("rule %q: notify_users references unknown emails", r.Name)
		}
	}

	rule := model.EscalationRule{
		Name:              r.Name,
		Description:       optional(r.Description),
		EntityType:        r.EntityType,
		ConditionField:    optional(r.ConditionField),
		ConditionOperator: optional(r.ConditionOperator),
		ConditionValue:    optional(r.ConditionValue),
		EscalationAction:  r.EscalationAction,
		IsActive:          !r.Inactive,
		ThresholdDays:     r.ThresholdDays,
	}
	var err error
	if len(r.NotifyRoles) > 0 {
		if rule.NotifyRoles, err = model.MarshalJSONValue(r.NotifyRoles); err != nil {
			return false, err
		}
	}
	if len(userIDs) > 0 {
		if rule.NotifyUsers, err = model.MarshalJSONValue(userIDs); err != nil {
			return false, err
		}
	}
	if err := tx.Create(&rule).Error; err != nil {
		return false, fmt.Errorf("create rule %q: %w", r.Name, err)
	}
	return true, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
