// Package secrets stores API credentials in the OS keyring.
package secrets

import (
	"errors"

	"github.com/rotisserie/eris"
	"github.com/zalando/go-keyring"
)

// Service is the keyring service all credentials are stored under.
const Service = "meridian-bdr"

// Known credential names, matching their config keys.
const (
	AnthropicKey  = "anthropic.key"
	SerperKey     = "serper.key"
	JinaKey       = "jina.key"
	PerplexityKey = "perplexity.key"
	NotionToken   = "notion.token"
	SMTPPassword  = "smtp.password"
	ListingCookie = "listing.cookie"
)

// Names lists every credential the CLI knows how to look up.
func Names() []string {
	return []string{AnthropicKey, SerperKey, JinaKey, PerplexityKey, NotionToken, SMTPPassword, ListingCookie}
}

// Known reports whether name is a recognised credential.
func Known(name string) bool {
	for _, n := range Names() {
		if n == name {
			return true
		}
	}
	return false
}

// Get returns the stored value, or "" when nothing is stored.
func Get(name string) (string, error) {
	v, err := keyring.Get(Service, name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", eris.Wrapf(err, "secrets: get %s", name)
	}
	return v, nil
}

// Set stores value under name.
func Set(name, value string) error {
	if value == "" {
		return eris.Errorf("secrets: empty value for %s", name)
	}
	if err := keyring.Set(Service, name, value); err != nil {
		return eris.Wrapf(err, "secrets: set %s", name)
	}
	return nil
}

// Delete removes name. Deleting a missing credential is not an error.
func Delete(name string) error {
	err := keyring.Delete(Service, name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return eris.Wrapf(err, "secrets: delete %s", name)
	}
	return nil
}

// Fill replaces each empty *string with the keyring value of its name.
// Keyring errors are returned, missing entries are left empty.
func Fill(fields map[string]*string) error {
	for name, ptr := range fields {
		if ptr == nil || *ptr != "" {
			continue
		}
		v, err := Get(name)
		if err != nil {
			return err
		}
		*ptr = v
	}
	return nil
}
