package authn

import (
	"unicode"

	"github.com/emporia/emporia/internal/core/identity/config"
	"github.com/emporia/emporia/pkg/model"
)

// PasswordValidator validates passwords against a policy.
type PasswordValidator struct {
	policy config.PasswordPolicyConfig
}

func NewPasswordValidator(policy config.PasswordPolicyConfig) *PasswordValidator {
	return &PasswordValidator{policy: policy}
}

// Validate returns a validation error describing the first unmet rule.
func (v *PasswordValidator) Validate(password string) error {
	if len(password) < v.policy.MinLength {
		return model.Errorf(model.ErrValidation, "password should be at least %d characters", v.policy.MinLength)
	}
	if v.policy.RequireUppercase && !containsFunc(password, unicode.IsUpper) {
		return model.Errorf(model.ErrValidation, "password must contain at least one uppercase letter")
	}
	if v.policy.RequireDigit && !containsFunc(password, unicode.IsDigit) {
		return model.Errorf(model.ErrValidation, "password must contain at least one digit")
	}
	return nil
}

func containsFunc(s string, f func(rune) bool) bool {
	for _, r := range s {
		if f(r) {
			return true
		}
	}
	return false
}
