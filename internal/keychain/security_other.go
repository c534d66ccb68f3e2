// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

//go:build !darwin

package keychain

import (
	"errors"

	"github.com/rs/zerolog"
)

var errNoSecurityCommand = errors.New("security command backend only available on macOS")

// securityBackend is never constructed outside macOS.
type securityBackend struct{}

func newSecurityBackend(zerolog.Logger) (*securityBackend, error) {
	return nil, errNoSecurityCommand
}

func (s *securityBackend) Set(string, string) error   { return errNoSecurityCommand }
func (s *securityBackend) Get(string) (string, error) { return "", errNoSecurityCommand }
func (s *securityBackend) Delete(string) error        { return errNoSecurityCommand }
