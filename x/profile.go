/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"runtime"

	"github.com/pkg/errors"
	"github.com/pkg/profile"
	"github.com/spf13/viper"
)

// Stopper is returned by StartProfile; Stop flushes the profile to disk.
type Stopper interface {
	Stop()
}

// StartProfile starts profiling in the mode named by the profile_mode setting,
// writing into profile_dir. An empty mode is a no-op.
//
// The server installs its own signal handling for graceful shutdown, so the
// profile package's shutdown hook is disabled and the caller must Stop.
func StartProfile(conf *viper.Viper) (Stopper, error) {
	opts := []func(*profile.Profile){profile.Quiet, profile.NoShutdownHook}
	if dir := conf.GetString("profile_dir"); dir != "" {
		opts = append(opts, profile.ProfilePath(dir))
	}

	switch mode := conf.GetString("profile_mode"); mode {
	case "cpu":
		return profile.Start(append(opts, profile.CPUProfile)...), nil
	case "mem":
		return profile.Start(append(opts, profile.MemProfile)...), nil
	case "mutex":
		return profile.Start(append(opts, profile.MutexProfile)...), nil
	case "block":
		runtime.SetBlockProfileRate(conf.GetInt("block_rate"))
		return profile.Start(append(opts, profile.BlockProfile)...), nil
	case "":
		return noOpStopper{}, nil
	default:
		return nil, errors.Errorf("invalid profile mode: %q", mode)
	}
}

type noOpStopper struct{}

func (noOpStopper) Stop() {}
