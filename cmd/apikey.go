// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"finbridge/cli/internal/keychain"
	"finbridge/cli/internal/terminal"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage the Anthropic API key handed to the analysis engine",
	Long: `The key is stored in the OS keychain and passed to the worker as ANTHROPIC_API_KEY.
An exported ANTHROPIC_API_KEY always takes precedence.`,
}

var apikeySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the API key in the OS keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := readSecret(os.Stdin, "Enter Anthropic API key: ")
		if err != nil {
			return err
		}
		if key == "" {
			return errors.New("API key is required")
		}
		if !strings.HasPrefix(key, "sk-") {
			pterm.Warning.Println("This does not look like an Anthropic key (expected sk-...). Saving anyway.")
		}

		km, err := keychain.GetManager(logger)
		if err != nil {
			pterm.Error.Println("Secure storage is not available on this system.")
			return err
		}
		if err := km.SaveAPIKey(key); err != nil {
			pterm.Error.Println("Failed to save the API key.")
			return err
		}
		pterm.Success.Println("API key saved to the keychain.")
		return nil
	},
}

var apikeyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored API key",
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager(logger)
		if err != nil {
			return err
		}
		if err := km.ClearAPIKey(); err != nil {
			return err
		}
		pterm.Success.Println("API key removed.")
		return nil
	},
}

var apikeyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the API key comes from",
	RunE: func(cmd *cobra.Command, args []string) error {
		if env := strings.TrimSpace(os.Getenv(envAPIKey)); env != "" {
			pterm.Info.Printf("Using %s from the environment (%s)\n", envAPIKey, redactKey(env))
			return nil
		}
		km, err := keychain.GetManager(logger)
		if err != nil {
			pterm.Warning.Println("No API key: environment variable unset and keychain unavailable.")
			return nil
		}
		key, err := km.LoadAPIKey()
		switch {
		case errors.Is(err, keychain.ErrNotFound):
			pterm.Warning.Println("No API key configured. Run 'finbridge apikey set'.")
		case err != nil:
			return err
		default:
			pterm.Info.Printf("Using key from the keychain (%s)\n", redactKey(key))
		}
		return nil
	},
}

// readSecret prompts for a value. On a terminal input is not echoed; otherwise
// one line is read and the prompt is cleared afterwards.
func readSecret(in *os.File, prompt string) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Print(prompt)
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return readLine(in, prompt)
}

func readLine(in io.Reader, prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	line = strings.TrimSpace(line)
	terminal.ClearPreviousLines(len(prompt) + len(line))
	return line, nil
}

// redactKey keeps only the last four characters of a key.
func redactKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func init() {
	apikeyCmd.AddCommand(apikeySetCmd, apikeyClearCmd, apikeyStatusCmd)
	rootCmd.AddCommand(apikeyCmd)
}
