package rules

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
)

var letterFlags = map[rune]regexp2.RegexOptions{
	'i': regexp2.IgnoreCase,
	'm': regexp2.Multiline,
	's': regexp2.Singleline,
	'x': regexp2.IgnorePatternWhitespace,
}

var namedFlags = map[string]regexp2.RegexOptions{
	"case_insensitive": regexp2.IgnoreCase,
	"ignore_case":      regexp2.IgnoreCase,
	"multiline":        regexp2.Multiline,
	"dotall":           regexp2.Singleline,
	"singleline":       regexp2.Singleline,
	"comments":         regexp2.IgnorePatternWhitespace,
	"extended":         regexp2.IgnorePatternWhitespace,
}

// ParseFlags converts a pattern flag string into regex options.
// Flags are either letter clusters ("im") or names ("CASE_INSENSITIVE"),
// separated by commas, pipes, or whitespace. An empty string yields no options.
func ParseFlags(flags string) (regexp2.RegexOptions, error) {
	var opts regexp2.RegexOptions

	tokens := strings.FieldsFunc(flags, func(r rune) bool {
		return r == ',' || r == '|' || r == ' ' || r == '\t'
	})

	for _, tok := range tokens {
		if opt, ok := namedFlags[strings.ToLower(tok)]; ok {
			opts |= opt
			continue
		}

		for _, r := range tok {
			opt, ok := letterFlags[r]
			if !ok {
				return 0, fmt.Errorf("%w: %q", ErrUnknownFlag, tok)
			}
			opts |= opt
		}
	}

	return opts, nil
}
