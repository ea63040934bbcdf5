package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchCoreDefaults(t *testing.T) {
	s := Defaults()
	require.True(t, s.EagerMatch)
	require.False(t, s.StrictValidation)
	require.True(t, s.ParallelCancellation)
	require.False(t, s.EnableMatchLog)
	require.Equal(t, ":1323", s.ListenAddr)
}

func TestLoadWithNoConfigPathUsesDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Defaults(), s)
}

func TestCacheConfigProjection(t *testing.T) {
	s := Defaults()
	s.StrictValidation = true
	cc := s.CacheConfig()
	require.True(t, cc.StrictValidation)
	require.Equal(t, s.EagerMatch, cc.EagerMatch)
	require.Equal(t, s.CancelChunkSize, cc.CancelChunkSize)
}
