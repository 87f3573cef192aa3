// ABOUTME: Resolves the bearer token the client sends with answer requests
// ABOUTME: Explicit token, then $BLOOP_TOKEN, then the token file

package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// EnvToken names the environment variable holding a bearer token.
const EnvToken = "BLOOP_TOKEN"

// ErrEmptyTokenFile is returned when the token file has no content.
var ErrEmptyTokenFile = errors.New("token file is empty")

// LoadToken picks the client's bearer token. An empty result with a nil
// error means the client runs unauthenticated.
func LoadToken(token, tokenFile string) (string, error) {
	if token != "" {
		return token, nil
	}
	if env := os.Getenv(EnvToken); env != "" {
		return env, nil
	}
	if tokenFile == "" {
		return "", nil
	}

	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	t := strings.TrimSpace(string(data))
	if t == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyTokenFile, tokenFile)
	}
	return t, nil
}
