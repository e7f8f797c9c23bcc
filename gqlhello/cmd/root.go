/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package cmd

import (
	goflag "flag"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mohammadmehdi-rp/graphql-testing/gqlhello/cmd/graphql"
	"github.com/mohammadmehdi-rp/graphql-testing/gqlhello/cmd/version"
	"github.com/mohammadmehdi-rp/graphql-testing/x"
)

// RootCmd is the gqlhello command; it only groups the sub-commands.
var RootCmd = &cobra.Command{
	Use:   "gqlhello",
	Short: "gqlhello: a minimal GraphQL endpoint",
	Long: `
gqlhello serves a small GraphQL API over HTTP: a hello greeting, the API
version and an add mutation over 32 bit integers.
` + x.BuildDetails(),
	PersistentPreRunE: cobra.NoArgs,
}

// Execute parses the command line and runs the chosen sub-command.
func Execute() {
	goflag.Parse()
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var rootConf = viper.New()

// subcommands initializes the root command's sub-commands.
var subcommands = []*x.SubCommand{&graphql.GraphQL, &version.Version}

func init() {
	RootCmd.PersistentFlags().String("profile_mode", "",
		"Enable profiling mode, one of [cpu, mem, mutex, block]")
	RootCmd.PersistentFlags().Int("block_rate", 0,
		"Block profiling rate. Must be used along with block profile_mode")
	RootCmd.PersistentFlags().String("profile_dir", "",
		"Directory the profile is written to. Defaults to a temporary directory.")
	RootCmd.PersistentFlags().String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden to values set with environment variables and flags.")
	RootCmd.PersistentFlags().Bool("bindall", true,
		"Use 0.0.0.0 instead of localhost to bind to all addresses on local machine.")
	x.Check(rootConf.BindPFlags(RootCmd.PersistentFlags()))

	flag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	// glog's stderr threshold is pinned so errors always reach stderr.
	x.Check(flag.Set("stderrthreshold", "0"))
	x.Check(flag.CommandLine.MarkDeprecated("stderrthreshold",
		"gqlhello always sets this flag to 0. It can't be overwritten."))

	for _, sc := range subcommands {
		RootCmd.AddCommand(sc.Cmd)
		sc.Conf = viper.New()
		x.Check(sc.Conf.BindPFlags(sc.Cmd.Flags()))
		x.Check(sc.Conf.BindPFlags(RootCmd.PersistentFlags()))
		sc.Conf.AutomaticEnv()
		sc.Conf.SetEnvPrefix(sc.EnvPrefix)
	}
	cobra.OnInitialize(func() {
		cfg := rootConf.GetString("config")
		if cfg == "" {
			return
		}
		for _, sc := range subcommands {
			sc.Conf.SetConfigFile(cfg)
			x.Check(x.Wrapf(sc.Conf.ReadInConfig(), "reading config"))
		}
	})
}
