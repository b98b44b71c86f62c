package validator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Custom validation tags
const (
	TagLangCode     = "langcode"     // Programming language identifier (go, python, c++, c#)
	TagModelRef     = "modelref"     // LLM model reference (gpt-4o, claude-sonnet-4, ollama/llama3:8b)
	TagUsername     = "username"     // Username (alphanumeric, underscore, 3-32 chars)
	TagPassword     = "password"     // Password (min 8 chars, at least 1 letter and 1 number)
	TagStrongPwd    = "strongpwd"    // Strong password (min 8, upper+lower+digit+special)
	TagSafeString   = "safestring"   // Safe string (no SQL injection, XSS patterns)
	TagNoWhitespace = "nowhitespace" // No whitespace characters
	TagTrimmed      = "trimmed"      // String should be trimmed (no leading/trailing spaces)
	TagSlug         = "slug"         // URL slug (lowercase alphanumeric and hyphens)
)

var (
	// Regex patterns
	langCodeRegex = regexp.MustCompile(`^[a-z][a-z0-9+#.-]{0,31}$`)
	modelRefRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._:/-]{0,127}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{2,31}$`)
	slugRegex     = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

	// Dangerous patterns for safe string validation
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:",
		"SELECT ", "INSERT ", "UPDATE ", "DELETE ", "DROP ",
		"UNION ", "OR 1=1", "' OR '", "-- ", "/*", "*/",
	}
)

// RegisterRules registers the custom validation rules on an external
// validator instance, such as gin's binding engine. This makes tags
// like "langcode" and "modelref" usable in request binding structs.
func RegisterRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		TagLangCode:     validateLangCode,
		TagModelRef:     validateModelRef,
		TagUsername:     validateUsername,
		TagPassword:     validatePassword,
		TagStrongPwd:    validateStrongPassword,
		TagSafeString:   validateSafeString,
		TagNoWhitespace: validateNoWhitespace,
		TagTrimmed:      validateTrimmed,
		TagSlug:         validateSlug,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// registerCustomRules registers all custom validation rules.
func (v *Validator) registerCustomRules() {
	// Programming language identifier
	_ = v.validate.RegisterValidation(TagLangCode, validateLangCode)

	// LLM model reference
	_ = v.validate.RegisterValidation(TagModelRef, validateModelRef)

	// Username
	_ = v.validate.RegisterValidation(TagUsername, validateUsername)

	// Password (basic)
	_ = v.validate.RegisterValidation(TagPassword, validatePassword)

	// Strong password
	_ = v.validate.RegisterValidation(TagStrongPwd, validateStrongPassword)

	// Safe string
	_ = v.validate.RegisterValidation(TagSafeString, validateSafeString)

	// No whitespace
	_ = v.validate.RegisterValidation(TagNoWhitespace, validateNoWhitespace)

	// Trimmed string
	_ = v.validate.RegisterValidation(TagTrimmed, validateTrimmed)

	// URL slug
	_ = v.validate.RegisterValidation(TagSlug, validateSlug)
}

// validateLangCode validates programming language identifiers.
// Lowercase, starting with a letter, allowing the few punctuation marks
// that occur in real language names ("c++", "c#", "objective-c").
func validateLangCode(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let 'required' handle empty values
	}
	return langCodeRegex.MatchString(value)
}

// validateModelRef validates LLM model references.
// Accepts provider-qualified names ("ollama/llama3:8b") and dated
// snapshots ("claude-sonnet-4-20250514").
func validateModelRef(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return modelRefRegex.MatchString(value)
}

// validateUsername validates username format.
// Must start with a letter, contain only alphanumeric and underscore, 3-32 chars.
func validateUsername(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return usernameRegex.MatchString(value)
}

// validatePassword validates basic password requirements.
// At least 8 characters, containing at least 1 letter and 1 number.
func validatePassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	if len(value) < 8 {
		return false
	}

	hasLetter := false
	hasNumber := false

	for _, char := range value {
		if unicode.IsLetter(char) {
			hasLetter = true
		}
		if unicode.IsDigit(char) {
			hasNumber = true
		}
		if hasLetter && hasNumber {
			return true
		}
	}

	return hasLetter && hasNumber
}

// validateStrongPassword validates strong password requirements.
// At least 8 characters, containing uppercase, lowercase, digit, and special character.
func validateStrongPassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	if len(value) < 8 {
		return false
	}

	hasUpper := false
	hasLower := false
	hasDigit := false
	hasSpecial := false

	for _, char := range value {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasDigit && hasSpecial
}

// validateSafeString checks for potentially dangerous patterns.
func validateSafeString(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	upperValue := strings.ToUpper(value)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(upperValue, strings.ToUpper(pattern)) {
			return false
		}
	}

	return true
}

// validateNoWhitespace validates that string contains no whitespace.
func validateNoWhitespace(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	for _, char := range value {
		if unicode.IsSpace(char) {
			return false
		}
	}

	return true
}

// validateTrimmed validates that string has no leading/trailing whitespace.
func validateTrimmed(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}

	return value == strings.TrimSpace(value)
}

// validateSlug validates URL slug format.
func validateSlug(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slugRegex.MatchString(value)
}
