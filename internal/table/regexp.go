/*
cleanupd - mail transfer agent queue-cleanup service.
Copyright (C) 2024 cleanupd contributors

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package table

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/qfile/cleanupd/framework/config"
)

// Regexp resolves a key by matching it against a compiled pattern and
// returning one or more (optionally placeholder-expanded) replacement
// strings.
type Regexp struct {
	re           *regexp.Regexp
	replacements []string

	expandPlaceholders bool
}

// NewRegexpFromConfig compiles a Regexp table from inline arguments
// (pattern, then replacement values) and "full_match"/"case_insensitive"/
// "expand_placeholders" directives.
func NewRegexpFromConfig(inlineArgs []string, cfg *config.Map) (*Regexp, error) {
	if len(inlineArgs) == 0 {
		return nil, fmt.Errorf("table.regexp: expected a pattern argument")
	}

	r := &Regexp{}
	var (
		fullMatch       bool
		caseInsensitive bool
	)
	cfg.Bool("full_match", false, true, &fullMatch)
	cfg.Bool("case_insensitive", false, true, &caseInsensitive)
	cfg.Bool("expand_placeholders", false, true, &r.expandPlaceholders)
	if _, err := cfg.Process(); err != nil {
		return nil, err
	}

	pattern := inlineArgs[0]
	if len(inlineArgs) > 1 {
		r.replacements = inlineArgs[1:]
	}

	if fullMatch {
		if !strings.HasPrefix(pattern, "^") {
			pattern = "^" + pattern
		}
		if !strings.HasSuffix(pattern, "$") {
			pattern = pattern + "$"
		}
	}
	if caseInsensitive {
		pattern = "(?i)" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("table.regexp: %w", err)
	}
	r.re = re
	return r, nil
}

func (r *Regexp) LookupMulti(_ context.Context, key string) ([]string, error) {
	matches := r.re.FindStringSubmatchIndex(key)
	if matches == nil {
		return nil, nil
	}

	result := make([]string, 0, len(r.replacements))
	for _, replacement := range r.replacements {
		if !r.expandPlaceholders {
			result = append(result, replacement)
			continue
		}
		result = append(result, string(r.re.ExpandString(nil, replacement, key, matches)))
	}
	return result, nil
}

func (r *Regexp) Lookup(ctx context.Context, key string) (string, bool, error) {
	newVal, err := r.LookupMulti(ctx, key)
	if err != nil {
		return "", false, err
	}
	if len(newVal) == 0 {
		return "", false, nil
	}
	return newVal[0], true, nil
}
