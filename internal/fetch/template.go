// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/pdiddy/resolution-engine/pkg/types"
)

// ErrUnknownPlaceholder marks a template placeholder the fetcher cannot expand.
var ErrUnknownPlaceholder = errors.New("unknown placeholder")

// ErrMissingSecret marks a {secret:NAME} reference with no value.
var ErrMissingSecret = errors.New("missing secret")

// placeholderPattern matches {name} and {name:arg}.
var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)(?::([^{}]*))?\}`)

const defaultDateLayout = "2006-01-02"

// Secrets resolves {secret:NAME} placeholders.
type Secrets interface {
	Lookup(name string) (string, bool)
}

// vars are the values available to one request.
type vars struct {
	span    types.Span
	loc     *time.Location
	limit   int
	secrets Secrets
}

// CheckTemplate reports the first placeholder in s the fetcher does not
// know. Secret values are not checked; they are resolved at fetch time.
func CheckTemplate(s string) error {
	for _, m := range placeholderPattern.FindAllStringSubmatch(s, -1) {
		switch m[1] {
		case "start_ms", "end_ms", "start_s", "end_s", "limit", "date":
		case "secret":
			if m[2] == "" {
				return fmt.Errorf("%w: %s needs a name", ErrUnknownPlaceholder, m[0])
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownPlaceholder, m[0])
		}
	}
	return nil
}

// expand substitutes every placeholder in s.
func (v vars) expand(s string) (string, error) {
	var firstErr error
	out := placeholderPattern.ReplaceAllStringFunc(s, func(tok string) string {
		m := placeholderPattern.FindStringSubmatch(tok)
		val, err := v.value(m[1], m[2])
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return tok
		}
		return val
	})
	return out, firstErr
}

func (v vars) value(name, arg string) (string, error) {
	switch name {
	case "start_ms":
		return strconv.FormatInt(v.span.StartMS, 10), nil
	case "end_ms":
		return strconv.FormatInt(v.span.EndMS, 10), nil
	case "start_s":
		return strconv.FormatInt(v.span.StartMS/1000, 10), nil
	case "end_s":
		return strconv.FormatInt(v.span.EndMS/1000, 10), nil
	case "limit":
		return strconv.Itoa(v.limit), nil
	case "date":
		layout := arg
		if layout == "" {
			layout = defaultDateLayout
		}
		loc := v.loc
		if loc == nil {
			loc = time.UTC
		}
		return time.UnixMilli(v.span.StartMS).In(loc).Format(layout), nil
	case "secret":
		if v.secrets != nil {
			if s, ok := v.secrets.Lookup(arg); ok {
				return s, nil
			}
		}
		return "", fmt.Errorf("%w: %s", ErrMissingSecret, arg)
	}
	return "", fmt.Errorf("%w: {%s}", ErrUnknownPlaceholder, name)
}
