// Package template substitutes {key} placeholders in recipe strings under
// an explicit value policy. Values substituted into URL contexts are
// percent-encoded so a hostile version tag cannot smuggle path segments or
// query strings into a download URL.
package template

import (
	"net/url"
	"strings"

	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/logging"
)

var log = logging.GetLogger("template")

// Policy bounds every substituted value. The zero value is not usable;
// construct with DefaultPolicy and adjust fields in tests.
type Policy struct {
	// MaxValueLength caps the length of any substituted value.
	MaxValueLength int

	// RejectParentDir rejects values containing "..".
	RejectParentDir bool

	// RejectNullByte rejects values containing NUL.
	RejectNullByte bool

	// RejectNewlines rejects values containing \n or \r.
	RejectNewlines bool

	// URLEncode percent-encodes values when the template is a URL context.
	URLEncode bool
}

// DefaultPolicy returns the conservative default policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxValueLength:  1024,
		RejectParentDir: true,
		RejectNullByte:  true,
		RejectNewlines:  true,
		URLEncode:       true,
	}
}

// Resolve replaces every {key} placeholder in template with vars[key]
// under the default policy. Placeholders with no matching variable are
// left in place for the caller to validate.
func Resolve(template string, vars map[string]string) (string, error) {
	return ResolveWithPolicy(template, vars, DefaultPolicy())
}

// ResolveWithPolicy replaces placeholders under an explicit policy.
func ResolveWithPolicy(template string, vars map[string]string, policy Policy) (string, error) {
	urlContext := strings.Contains(template, "http://") || strings.Contains(template, "https://")

	result := template
	for key, value := range vars {
		placeholder := "{" + key + "}"
		if !strings.Contains(result, placeholder) {
			continue
		}

		if err := checkValue(key, value, policy); err != nil {
			return "", err
		}

		inserted := value
		if urlContext && policy.URLEncode {
			inserted = url.PathEscape(value)
		}
		result = strings.ReplaceAll(result, placeholder, inserted)
	}

	return result, nil
}

// checkValue enforces the policy on a single variable value.
func checkValue(key, value string, policy Policy) error {
	if policy.MaxValueLength > 0 && len(value) > policy.MaxValueLength {
		return errors.Newf(errors.ErrTemplateTooLong,
			"template variable %q exceeds %d bytes", key, policy.MaxValueLength).
			WithDetail("length", len(value))
	}
	if policy.RejectParentDir && strings.Contains(value, "..") {
		return errors.Newf(errors.ErrTemplateTraversal,
			"template variable %q contains path traversal sequence", key)
	}
	if policy.RejectNullByte && strings.ContainsRune(value, 0) {
		return errors.Newf(errors.ErrTemplateNullByte,
			"template variable %q contains a null byte", key)
	}
	if policy.RejectNewlines && strings.ContainsAny(value, "\n\r") {
		return errors.Newf(errors.ErrTemplateNewline,
			"template variable %q contains a newline", key)
	}
	if strings.Contains(value, "${") || strings.Contains(value, "$(") {
		log.Warn().Str("variable", key).Msg("template value contains shell expansion syntax")
	}
	return nil
}
