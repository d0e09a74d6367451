package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
)

// KeyringService is the service name passwords are stored under.
const KeyringService = "firebolt-cli"

// keyringPasswordEnv unlocks the file backend where no OS store exists.
const keyringPasswordEnv = "FIREBOLT_KEYRING_PASSWORD"

// OpenKeyring opens the OS credential store, falling back to an encrypted
// file under configDir.
func OpenKeyring(configDir string) (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: KeyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		KeychainTrustApplication: true,
		PassPrefix:               KeyringService,
		WinCredPrefix:            KeyringService,
		FileDir:                  filepath.Join(configDir, "keyring"),
		FilePasswordFunc: func(string) (string, error) {
			if pw := os.Getenv(keyringPasswordEnv); pw != "" {
				return pw, nil
			}
			return "", fmt.Errorf("no OS credential store available, set %s to use the file store", keyringPasswordEnv)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	return ring, nil
}

// StorePassword saves the password of username.
func StorePassword(ring keyring.Keyring, username, password string) error {
	if username == "" {
		return fmt.Errorf("username is required to store a password")
	}
	return ring.Set(keyring.Item{
		Key:         username,
		Data:        []byte(password),
		Label:       "Firebolt password for " + username,
		Description: "firebolt CLI credentials",
	})
}

// LoadPassword returns the stored password of username, or "" if none is
// stored.
func LoadPassword(ring keyring.Keyring, username string) (string, error) {
	if username == "" {
		return "", nil
	}
	item, err := ring.Get(username)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read stored password: %w", err)
	}
	return string(item.Data), nil
}

// ResolvePassword fills c.Password from the credential store when no
// password came from flags, environment or file. Store failures are
// returned so callers can decide whether they matter.
func (c *Config) ResolvePassword(open func(dir string) (keyring.Keyring, error)) error {
	if c.Password != "" || c.Username == "" {
		return nil
	}
	ring, err := open(c.ConfigDir)
	if err != nil {
		return err
	}
	pw, err := LoadPassword(ring, c.Username)
	if err != nil {
		return err
	}
	c.Password = pw
	return nil
}
