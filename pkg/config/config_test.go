package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Foo string `yaml:"foo"`
	Bar struct {
		Car string `yaml:"car"`
	} `yaml:"bar"`
}

func writeConfigFile(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		path := writeConfigFile(t, `
foo: val1
bar:
  car: val2
`)

		var conf testConfig
		require.NoError(t, Load(path, &conf, false))

		assert.Equal(t, "val1", conf.Foo)
		assert.Equal(t, "val2", conf.Bar.Car)
	})

	t.Run("expand env", func(t *testing.T) {
		t.Setenv("DRIFT_TEST_FOO", "val1")

		path := writeConfigFile(t, `
foo: ${DRIFT_TEST_FOO}
bar:
  car: ${DRIFT_TEST_MISSING:val2}
`)

		var conf testConfig
		require.NoError(t, Load(path, &conf, true))

		assert.Equal(t, "val1", conf.Foo)
		// Undefined variables fall back to the given default.
		assert.Equal(t, "val2", conf.Bar.Car)
	})

	t.Run("unknown field", func(t *testing.T) {
		path := writeConfigFile(t, `
unknown: val1
`)

		var conf testConfig
		assert.Error(t, Load(path, &conf, false))
	})

	t.Run("missing file", func(t *testing.T) {
		var conf testConfig
		assert.Error(t, Load("/does/not/exist.yaml", &conf, false))
	})
}
