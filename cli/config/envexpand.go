// Package config loads the optional filesock YAML config file.
package config

import (
	"os"
	"regexp"
)

// envRef matches ${NAME} and ${NAME:-fallback}.
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnv substitutes ${NAME} and ${NAME:-fallback} references in input.
//
// A variable that is unset or empty takes its fallback when one is given,
// otherwise it expands to the empty string. Missing values surface later as
// validation errors (e.g. an adapter without a URL).
func ExpandEnv(input string) string {
	return envRef.ReplaceAllStringFunc(input, func(ref string) string {
		groups := envRef.FindStringSubmatch(ref)
		if value := os.Getenv(groups[1]); value != "" {
			return value
		}
		return groups[2]
	})
}
