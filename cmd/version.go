// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

// Version is the finbridge release, injected with
// -ldflags "-X finbridge/cli/cmd.Version=...".
var Version = "0.0.0-dev"
