// Copyright 2026 The Geolocator Authors
// SPDX-License-Identifier: Apache-2.0

package geolocator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAPIKey(t *testing.T) {
	t.Run("config wins", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "AIzaFromEnv")

		key, err := ResolveAPIKey(context.Background(), "AIzaFromConfig", DefaultAPIKeyName)
		require.NoError(t, err)
		assert.Equal(t, "AIzaFromConfig", key)
	})

	t.Run("environment", func(t *testing.T) {
		t.Setenv(APIKeyEnv, "AIzaFromEnv")

		key, err := ResolveAPIKey(context.Background(), "", DefaultAPIKeyName)
		require.NoError(t, err)
		assert.Equal(t, "AIzaFromEnv", key)
	})
}
