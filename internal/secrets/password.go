package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"carhunt-engine/internal/config"
)

const (
	// "Service" groups the app's secrets in the OS keychain.
	KeyringService = "carhunt"

	// AgentAccount is the keychain slot for the paid browsing agent's API key.
	AgentAccount = "carhunt:agent:api_key"
)

func GetIMAPPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}

	return "", errors.New("IMAP password not found (set it in keychain or via env)")
}

func SetIMAPPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, password)
}

func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, keyringAccount)
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"carhunt:imap:%s@%s",
		cfg.Email.Username,
		cfg.Email.IMAPHost,
	)
}

// GetAgentAPIKey resolves the agent key: keychain first, CARHUNT_AGENT_API_KEY
// env as a fallback for headless boxes without a keyring daemon.
func GetAgentAPIKey() (string, error) {
	pw, err := keyring.Get(KeyringService, AgentAccount)
	if err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	if v := strings.TrimSpace(os.Getenv("CARHUNT_AGENT_API_KEY")); v != "" {
		return v, nil
	}
	return "", errors.New("agent API key not found (set it in keychain or CARHUNT_AGENT_API_KEY)")
}

func SetAgentAPIKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("api key is empty")
	}
	return keyring.Set(KeyringService, AgentAccount, key)
}

func DeleteAgentAPIKey() error {
	return keyring.Delete(KeyringService, AgentAccount)
}
