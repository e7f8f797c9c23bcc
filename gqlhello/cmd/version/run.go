/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

// Version is the sub-command invoked when running "gqlhello version".
var Version x.SubCommand

func init() {
	Version.Cmd = &cobra.Command{
		Use:   "version",
		Short: "Prints the gqlhello version details",
		Long:  "Version prints the gqlhello version as reported by the build details.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), x.BuildDetails())
		},
		Annotations: map[string]string{"group": "default"},
	}
	Version.EnvPrefix = "GQL_VERSION"
	Version.Cmd.SetHelpTemplate(x.NonRootTemplate)
}
