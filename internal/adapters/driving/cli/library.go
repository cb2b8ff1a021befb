package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/halcyon-labs/snapbridge-cli/internal/core/ports/driven"
)

var (
	immichURLFlag string
	apiKeyFlag    string
)

// resolveLibrary builds an Immich client from flags, stored config, and
// finally an interactive prompt for the API key. Resolved values are
// persisted so the next run doesn't ask again.
func resolveLibrary() (driven.LibraryClient, error) {
	if deps == nil || deps.NewLibrary == nil {
		return nil, errors.New("library client not configured")
	}

	serverURL := immichURLFlag
	if serverURL == "" && deps.Config != nil {
		serverURL = deps.Config.GetString("immich.url")
	}
	if serverURL == "" {
		return nil, errors.New("no Immich server URL: pass --immich-url or set immich.url in the config")
	}

	apiKey := apiKeyFlag
	if apiKey == "" && deps.Config != nil {
		apiKey = deps.Config.GetString("immich.api_key")
	}
	if apiKey == "" {
		key, err := promptAPIKey()
		if err != nil {
			return nil, err
		}
		apiKey = key
	}
	if apiKey == "" {
		return nil, errors.New("no Immich API key provided")
	}

	if deps.Config != nil {
		// Best effort; a read-only config dir shouldn't block the phase.
		_ = deps.Config.Set("immich.url", serverURL)
		_ = deps.Config.Set("immich.api_key", apiKey)
	}

	return deps.NewLibrary(serverURL, apiKey), nil
}

// promptAPIKey reads the key from the terminal without echoing it.
func promptAPIKey() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no Immich API key: pass --api-key or set immich.api_key in the config")
	}

	fmt.Fprint(os.Stderr, "Immich API key: ")
	key, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading API key: %w", err)
	}
	return strings.TrimSpace(string(key)), nil
}
