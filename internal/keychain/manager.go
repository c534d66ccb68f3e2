// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package keychain stores the CLI's secrets in the OS credential store: the
// Anthropic API key forwarded to the worker and the DSN of the optional
// history database. Nothing secret is ever written to the config file.
//
// macOS uses the native security command when present; every other platform
// goes through 99designs/keyring with native backends only (Keychain, Windows
// Credential Manager, Secret Service, KWallet, pass). There is no file fallback.
package keychain

import (
	"errors"
	"runtime"
	"sync"

	"github.com/99designs/keyring"
	"github.com/rs/zerolog"
)

var (
	globalManager *Manager
	mu            sync.Mutex
)

// ErrNotFound is returned when a key has no stored value.
var ErrNotFound = errors.New("key not found in keychain")

// Manager provides thread-safe access to the OS keychain.
type Manager struct {
	mu      sync.RWMutex
	ring    keyring.Keyring
	backend keychainBackend
	log     zerolog.Logger
}

type keychainBackend interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}

// ServiceName identifies our keychain namespace.
const ServiceName = "finbridge"

// Keys used for storing secrets.
const (
	KeyAPIKey     = "anthropic_api_key"
	KeyHistoryDSN = "history_dsn"
)

var allKeys = []string{KeyAPIKey, KeyHistoryDSN}

// NewManager opens the OS keychain.
func NewManager(log zerolog.Logger) (*Manager, error) {
	log = log.With().Str("component", "keychain").Logger()
	if runtime.GOOS == "darwin" {
		backend, err := newSecurityBackend(log)
		if err == nil {
			return &Manager{backend: backend, log: log}, nil
		}
		log.Debug().Err(err).Msg("security command unavailable, using keyring")
	}

	ring, err := openRing()
	if err != nil {
		return nil, err
	}
	return &Manager{ring: ring, log: log}, nil
}

// GetManager returns the process-wide manager, creating it on first use.
// A failed initialization is retried on the next call.
func GetManager(log zerolog.Logger) (*Manager, error) {
	mu.Lock()
	defer mu.Unlock()

	if globalManager != nil {
		return globalManager, nil
	}
	m, err := NewManager(log)
	if err != nil {
		return nil, err
	}
	globalManager = m
	return m, nil
}

func allowedBackends() []keyring.BackendType {
	switch runtime.GOOS {
	case "darwin":
		// pass covers macOS releases where the Keychain API refuses unsigned binaries.
		return []keyring.BackendType{keyring.KeychainBackend, keyring.PassBackend}
	case "windows":
		return []keyring.BackendType{keyring.WinCredBackend}
	default:
		return []keyring.BackendType{keyring.SecretServiceBackend, keyring.KWalletBackend, keyring.PassBackend}
	}
}

func openRing() (keyring.Keyring, error) {
	cfg := keyring.Config{
		ServiceName:             ServiceName,
		AllowedBackends:         allowedBackends(),
		PassPrefix:              ServiceName,
		WinCredPrefix:           ServiceName,
		KWalletAppID:            ServiceName,
		KWalletFolder:           ServiceName,
		LibSecretCollectionName: ServiceName,
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		if runtime.GOOS == "darwin" {
			return nil, errors.New("macOS Keychain unavailable. Install 'pass': brew install pass gnupg && gpg --generate-key && pass init <gpg-key-id>")
		}
		return nil, err
	}
	return ring, nil
}

func (m *Manager) set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend != nil {
		return m.backend.Set(key, value)
	}
	return m.ring.Set(keyring.Item{Key: key, Label: ServiceName + " " + key, Data: []byte(value)})
}

func (m *Manager) get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		value string
		err   error
	)
	if m.backend != nil {
		value, err = m.backend.Get(key)
	} else {
		var it keyring.Item
		it, err = m.ring.Get(key)
		value = string(it.Data)
	}
	if errors.Is(err, keyring.ErrKeyNotFound) || errors.Is(err, ErrNotFound) || (err == nil && value == "") {
		return "", ErrNotFound
	}
	return value, err
}

// remove deletes keys, ignoring ones that are not stored.
func (m *Manager) remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, k := range keys {
		var err error
		if m.backend != nil {
			err = m.backend.Delete(k)
		} else {
			err = m.ring.Remove(k)
		}
		if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			m.log.Debug().Err(err).Str("key", k).Msg("remove secret")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SaveAPIKey stores the API key handed to the worker.
func (m *Manager) SaveAPIKey(key string) error { return m.set(KeyAPIKey, key) }

// LoadAPIKey returns the stored API key or ErrNotFound.
func (m *Manager) LoadAPIKey() (string, error) { return m.get(KeyAPIKey) }

// ClearAPIKey removes the stored API key.
func (m *Manager) ClearAPIKey() error { return m.remove(KeyAPIKey) }

// SaveHistoryDSN stores the history database connection string.
func (m *Manager) SaveHistoryDSN(dsn string) error { return m.set(KeyHistoryDSN, dsn) }

// LoadHistoryDSN returns the stored history DSN or ErrNotFound.
func (m *Manager) LoadHistoryDSN() (string, error) { return m.get(KeyHistoryDSN) }

// ClearHistoryDSN removes the stored history DSN.
func (m *Manager) ClearHistoryDSN() error { return m.remove(KeyHistoryDSN) }

// ClearAll removes every secret this CLI stores.
func (m *Manager) ClearAll() error { return m.remove(allKeys...) }
