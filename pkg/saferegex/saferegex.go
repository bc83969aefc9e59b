// Package saferegex compiles user-supplied patterns under complexity caps.
// The underlying engine is RE2, which runs in linear time and cannot be
// driven into catastrophic backtracking; the caps here bound memory and
// match bookkeeping for patterns arriving from untrusted recipes.
package saferegex

import (
	"regexp"
	"strings"

	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/logging"
)

var log = logging.GetLogger("saferegex")

const (
	// MaxPatternLength caps the byte length of a pattern.
	MaxPatternLength = 1000

	// MaxCaptureGroups caps capture groups, counted before and after compile.
	MaxCaptureGroups = 50

	// alternationWarnThreshold triggers a warning, not a rejection.
	alternationWarnThreshold = 10
)

// Compile validates and compiles an untrusted pattern.
func Compile(pattern string) (*regexp.Regexp, error) {
	if len(pattern) > MaxPatternLength {
		return nil, errors.Newf(errors.ErrPatternTooLong,
			"pattern exceeds %d bytes", MaxPatternLength).
			WithDetail("length", len(pattern))
	}

	if n := countCaptureGroups(pattern); n > MaxCaptureGroups {
		return nil, errors.Newf(errors.ErrPatternGroups,
			"pattern has %d capture groups, maximum is %d", n, MaxCaptureGroups)
	}

	if n := strings.Count(pattern, "|"); n > alternationWarnThreshold {
		log.Warn().Int("alternations", n).Msg("pattern has a high alternation count")
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPatternCompile, "invalid pattern")
	}

	// The syntactic count above ignores constructs like nested groups the
	// scanner cannot see; recheck against the compiled form.
	if re.NumSubexp() > MaxCaptureGroups {
		return nil, errors.Newf(errors.ErrPatternGroups,
			"pattern has %d capture groups, maximum is %d", re.NumSubexp(), MaxCaptureGroups)
	}

	return re, nil
}

// countCaptureGroups counts opening parens that start a capture group,
// skipping escaped parens and non-capturing or flagged groups.
func countCaptureGroups(pattern string) int {
	count := 0
	escaped := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c == '(' {
			if i+1 < len(pattern) && pattern[i+1] == '?' {
				continue
			}
			count++
		}
	}
	return count
}
