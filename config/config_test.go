package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
[mail]
host = "smtp.example.com"
sender_address = "noreply@example.com"
password = "hunter2"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(body), 0o600))

	return dir
}

func setupWith(t *testing.T, body string) error {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	old := *configPath
	*configPath = writeConfig(t, body)
	t.Cleanup(func() { *configPath = old })

	return Setup()
}

func TestSetupAppliesDefaults(t *testing.T) {
	require.NoError(t, setupWith(t, minimalConfig))

	assert.Equal(t, "info", viper.GetString("app.log_level"))
	assert.Equal(t, "database.db", viper.GetString("db.path"))
	assert.Equal(t, "localhost", viper.GetString("host.domain"))
	assert.Equal(t, 587, viper.GetInt("mail.port"))
	assert.Equal(t, 5*time.Minute, viper.GetDuration("mail.resend_cooldown"))
	assert.Equal(t, time.Hour, viper.GetDuration("tokens.cleanup_interval"))
}

func TestSetupMissingConfigFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	old := *configPath
	*configPath = t.TempDir()
	t.Cleanup(func() { *configPath = old })

	assert.EqualError(t, Setup(), "config.toml file is missing")
}

func TestSetupRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			"missing mail host",
			`
[mail]
sender_address = "noreply@example.com"
password = "hunter2"
`,
			"no mail host provided",
		},
		{
			"bad log level",
			minimalConfig + `
[app]
log_level = "verbose"
`,
			"invalid log level provided",
		},
		{
			"bad cooldown",
			minimalConfig + `
resend_cooldown = "-1m"
`,
			"mail.resend_cooldown must be a positive duration",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.EqualError(t, setupWith(t, tc.body), tc.want)
		})
	}
}
