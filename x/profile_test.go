/*
 * SPDX-FileCopyrightText: © Hypermode Inc. <hello@hypermode.com>
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestStartProfile(t *testing.T) {
	conf := viper.New()

	stopper, err := StartProfile(conf)
	require.NoError(t, err)
	stopper.Stop()

	conf.Set("profile_mode", "bogus")
	_, err = StartProfile(conf)
	require.Error(t, err)

	dir := t.TempDir()
	conf.Set("profile_mode", "mem")
	conf.Set("profile_dir", dir)
	stopper, err = StartProfile(conf)
	require.NoError(t, err)
	stopper.Stop()

	_, err = os.Stat(filepath.Join(dir, "mem.pprof"))
	require.NoError(t, err)
}
