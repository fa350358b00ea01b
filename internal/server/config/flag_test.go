package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-g", "127.0.0.1:9091", "-d", "db", "-s", "secret",
				"-i", "5", "-m", "60", "-k", "10",
			},
			expected: &Config{
				HTTPAddr:           "127.0.0.1:9090",
				GRPCAddr:           "127.0.0.1:9091",
				DatabaseDSN:        "db",
				SecretKey:          "secret",
				SessionIdleTimeout: 5 * time.Minute,
				SessionMaxLifetime: time.Hour,
				BcryptCost:         10,
			},
		},
		{
			name: "unrelated flags are ignored",
			args: []string{"-c", "some.json", "-test.v", "-a", ":1"},
			expected: &Config{
				HTTPAddr: ":1",
			},
		},
		{
			name:        "non-numeric duration panics",
			args:        []string{"-i", "soon"},
			expectPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(config, tt.args) })
				return
			}

			require.NotPanics(t, func() { parseFlags(config, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}
