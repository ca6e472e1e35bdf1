package secrets

import (
	"os"
	"strings"
)

// EnvLoader returns a Loader that reads the specified environment variables.
// Missing variables are omitted from the result map. Values are trimmed so a
// trailing newline from a mounted secret file does not change the key.
func EnvLoader(keys ...string) Loader {
	return func() (map[string]string, error) {
		vals := make(map[string]string, len(keys))
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				vals[k] = v
			}
		}
		return vals, nil
	}
}
