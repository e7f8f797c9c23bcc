/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"fmt"
	"runtime"

	"github.com/golang/glog"
)

var (
	// These variables are set using -ldflags
	gqlhelloVersion string
	gitBranch       string
	lastCommitSHA   string
	lastCommitTime  string
)

// NonRootTemplate is the help template used by all the sub-commands.
const NonRootTemplate = `{{if .Long}}{{.Long}}{{else}}{{.Short}}{{end}}

Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if .HasAvailableLocalFlags}}

Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}
`

// BuildDetails returns a string containing details about the gqlhello binary.
func BuildDetails() string {
	return fmt.Sprintf(`
gqlhello version : %v
Commit SHA-1     : %v
Commit timestamp : %v
Branch           : %v
Go version       : %v

`,
		Version(), lastCommitSHA, lastCommitTime, gitBranch, runtime.Version())
}

// PrintVersion prints version and other helpful information.
func PrintVersion() {
	glog.Infof("\n%s\n", BuildDetails())
}

// Version returns a string containing the version of the binary, "dev" when
// the binary wasn't built with -ldflags.
func Version() string {
	if gqlhelloVersion == "" {
		return "dev"
	}
	return gqlhelloVersion
}
