// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestConfig points ROUTESGO_CFG at a testdata file and resets the
// global Config so the next lookup reloads it.
func setupTestConfig(t *testing.T, testdataFile string) {
	t.Helper()

	absPath, err := filepath.Abs(filepath.Join("testdata", testdataFile))
	require.NoError(t, err, "failed to get absolute path for test config")

	t.Setenv("ROUTESGO_CFG", absPath)
	Config = Type{}
	t.Cleanup(func() { Config = Type{} })
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		testFile  string
		wantErr   bool
		checkFunc func(*testing.T, Type)
	}{
		{
			name:     "simple string values",
			testFile: "simple.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source)
				assert.Equal(t, "routes.googleapis.com", cfg.Data["endpoint"])
				assert.Equal(t, "test-key", cfg.Data["api_key"])
			},
		},
		{
			name:     "nested structure",
			testFile: "nested.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				cache, ok := cfg.Data["cache"].(map[string]interface{})
				require.True(t, ok, "cache should be a map")
				assert.Equal(t, 64, cache["max_entries"])
				assert.Equal(t, "5m", cache["ttl"])
			},
		},
		{
			name:     "mixed types",
			testFile: "mixed-types.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.Equal(t, 4, cfg.Data["workers"])
				assert.Equal(t, true, cfg.Data["titles"])
				assert.Equal(t, 30.5, cfg.Data["timeout"])
				attrs, ok := cfg.Data["attrs"].([]interface{})
				assert.True(t, ok)
				assert.Len(t, attrs, 2)
			},
		},
		{
			name:     "empty file",
			testFile: "empty.yaml",
			checkFunc: func(t *testing.T, cfg Type) {
				assert.NotEmpty(t, cfg.Source, "should have a source path")
			},
		},
		{
			name:     "malformed yaml",
			testFile: "broken.yaml",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.testFile)

			cfg, err := Load()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			if tt.checkFunc != nil {
				tt.checkFunc(t, cfg)
			}
		})
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	t.Setenv("ROUTESGO_CFG", "/nonexistent/routesgo.yaml")
	Config = Type{}
	t.Cleanup(func() { Config = Type{} })

	cfg, err := Load(filepath.Join("testdata", "simple.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "test-key", cfg.Data["api_key"])
}

func TestLoad_NoConfigFile(t *testing.T) {
	t.Setenv("ROUTESGO_CFG", "/nonexistent/path/routesgo.yaml")
	Config = Type{}

	_, err := Load()
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoad_CfgIsDirectory(t *testing.T) {
	t.Setenv("ROUTESGO_CFG", "testdata")
	Config = Type{}

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "points to a directory")
}

func TestLoad_StandardLocations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "routesgo.yaml"), []byte("workers: 9\n"), 0o600))

	t.Setenv("ROUTESGO_CFG", "")
	t.Setenv("XDG_CONFIG_HOME", dir)
	Config = Type{}
	t.Cleanup(func() { Config = Type{} })

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "routesgo.yaml"), cfg.Source)
	assert.Equal(t, 9, cfg.Data["workers"])
}

func TestGetString(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []string
		want         string
		wantErr      bool
	}{
		{name: "simple string value", testFile: "simple.yaml", key: "endpoint", want: "routes.googleapis.com"},
		{name: "nested string value", testFile: "nested.yaml", key: "route.mode", want: "walk"},
		{name: "missing key with default", testFile: "simple.yaml", key: "missing", defaultValue: []string{"default-value"}, want: "default-value"},
		{name: "missing key without default", testFile: "simple.yaml", key: "missing", wantErr: true},
		{name: "non-string value", testFile: "mixed-types.yaml", key: "workers", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.testFile)
			_, _ = Load()

			got, err := GetString(tt.key, tt.defaultValue...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInt(t *testing.T) {
	tests := []struct {
		name         string
		testFile     string
		key          string
		defaultValue []int
		want         int
		wantErr      bool
	}{
		{name: "int value", testFile: "mixed-types.yaml", key: "workers", want: 4},
		{name: "float value converted to int", testFile: "mixed-types.yaml", key: "timeout", want: 30},
		{name: "nested int value", testFile: "nested.yaml", key: "cache.max_entries", want: 64},
		{name: "missing key with default", testFile: "simple.yaml", key: "missing", defaultValue: []int{60}, want: 60},
		{name: "missing key without default", testFile: "simple.yaml", key: "missing", wantErr: true},
		{name: "non-int value", testFile: "simple.yaml", key: "endpoint", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestConfig(t, tt.testFile)
			_, _ = Load()

			got, err := GetInt(tt.key, tt.defaultValue...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetDuration(t *testing.T) {
	setupTestConfig(t, "nested.yaml")

	d, err := GetDuration("cache.ttl")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, d)

	d, err = GetDuration("cache.drain")
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)

	d, err = GetDuration("matrix.timeout")
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, d)

	d, err = GetDuration("missing", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, d)

	_, err = GetDuration("route.mode")
	assert.Error(t, err)
}

func TestGetStringSlice(t *testing.T) {
	setupTestConfig(t, "mixed-types.yaml")

	got, err := GetStringSlice("attrs")
	require.NoError(t, err)
	assert.Equal(t, []string{"distanceMeters", "duration"}, got)

	got, err = GetStringSlice("field_mask")
	require.NoError(t, err)
	assert.Equal(t, []string{"routes.duration", "routes.distanceMeters"}, got)

	got, err = GetStringSlice("missing", []string{"x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, got)

	_, err = GetStringSlice("workers")
	assert.Error(t, err)
}

func TestGetBool(t *testing.T) {
	setupTestConfig(t, "mixed-types.yaml")

	b, err := GetBool("titles")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = GetBool("name")
	assert.Error(t, err)
}

func TestConfig_GetWithNamespace(t *testing.T) {
	setupTestConfig(t, "nested.yaml")
	_, err := Load()
	require.NoError(t, err)

	Config.Namespace = "route"
	val, err := Config.get("mode")
	assert.NoError(t, err)
	assert.Equal(t, "walk", val)

	Config.Namespace = "matrix"
	val, err = Config.get("mode")
	assert.NoError(t, err)
	assert.Equal(t, "drive", val)

	// Falls back to the un-namespaced key.
	val, err = Config.get("cache.max_entries")
	assert.NoError(t, err)
	assert.Equal(t, 64, val)
}

func TestConfig_GetNestedPath(t *testing.T) {
	setupTestConfig(t, "deep-nested.yaml")
	_, err := Load()
	require.NoError(t, err)

	val, err := Config.get("level1.level2.level3.value")
	assert.NoError(t, err)
	assert.Equal(t, "deep-value", val)
}

func TestConfig_LazyLoad(t *testing.T) {
	setupTestConfig(t, "simple.yaml")

	val, err := GetString("endpoint")
	assert.NoError(t, err)
	assert.Equal(t, "routes.googleapis.com", val)
	assert.NotEmpty(t, Config.Source, "Config should be loaded")
}

func TestGetString_NamespaceFallback(t *testing.T) {
	setupTestConfig(t, "namespace.yaml")
	_, err := Load()
	require.NoError(t, err)

	Config.Namespace = "route"

	val, err := GetString("setting")
	assert.NoError(t, err)
	assert.Equal(t, "route-value", val)

	val, err = GetString("specific")
	assert.NoError(t, err)
	assert.Equal(t, "route-specific", val)

	_, err = GetString("nonexistent")
	assert.Error(t, err)
}
