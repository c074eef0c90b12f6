package notifier

import (
	"os"
)

// SecretResolver turns a subscription's secret reference into the live value. An unknown reference
// resolves to "".
type SecretResolver interface {
	Resolve(ref string) string
}

// ConfigSecrets looks a reference up in the configured map first, then in the environment.
type ConfigSecrets struct {
	secrets map[string]string
}

func NewConfigSecrets(secrets map[string]string) *ConfigSecrets {
	return &ConfigSecrets{secrets: secrets}
}

func (s *ConfigSecrets) Resolve(ref string) string {
	if ref == "" {
		return ""
	}
	if v, ok := s.secrets[ref]; ok {
		return v
	}
	return os.Getenv(ref)
}
