package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadConfig_MergesEnvironmentOverBase(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
imap:
  host: imap.gmail.com
  port: 993
triage:
  delay: 10s
`)
	writeFile(t, dir, "test.yaml", `
imap:
  port: 1993
`)

	cfg, err := LoadConfig("test", dir)
	require.NoError(t, err)

	imap := cfg["imap"].(map[string]interface{})
	assert.Equal(t, "imap.gmail.com", imap["host"])
	assert.Equal(t, 1993, imap["port"])
}

func TestLoadConfig_MissingEnvFileIsIgnored(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", "log:\n  level: info\n")

	cfg, err := LoadConfig("production", dir)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg["log"].(map[string]interface{})["level"])
}

func TestLoadConfig_MissingBaseFails(t *testing.T) {
	_, err := LoadConfig("local", t.TempDir())
	assert.Error(t, err)
}

func TestLoadConfig_SubstitutesSecretsAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
llm:
  api_key: ${MAILTRIAGE_TEST_KEY}
smtp:
  password: "${MAILTRIAGE_TEST_SMTP}"
triage:
  labels: ["${MAILTRIAGE_TEST_LABEL}"]
`)
	writeFile(t, dir, "secrets.env", `
# comment
MAILTRIAGE_TEST_KEY="from-secrets"
MAILTRIAGE_TEST_SMTP=smtp-secret
`)
	t.Setenv("MAILTRIAGE_TEST_SMTP", "from-env")
	t.Setenv("MAILTRIAGE_TEST_LABEL", "spam")

	cfg, err := LoadConfig("", dir)
	require.NoError(t, err)

	assert.Equal(t, "from-secrets", cfg["llm"].(map[string]interface{})["api_key"])
	assert.Equal(t, "from-env", cfg["smtp"].(map[string]interface{})["password"])
	assert.Equal(t, []interface{}{"spam"}, cfg["triage"].(map[string]interface{})["labels"])
}

func TestDecode_TypedStruct(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
triage:
  delay: 10s
  labels: [positive, neutral, negative]
operator:
  name: AI Agent
`)

	var out struct {
		Triage   TriageConfig   `yaml:"triage"`
		Operator OperatorConfig `yaml:"operator"`
	}
	require.NoError(t, Decode("local", dir, &out))

	assert.Equal(t, 10*time.Second, out.Triage.Delay)
	assert.Equal(t, []string{"positive", "neutral", "negative"}, out.Triage.Labels)
	assert.Equal(t, "AI Agent", out.Operator.Name)
}

func TestOverrideMailFromEnv(t *testing.T) {
	t.Setenv("EMAIL_USERNAME", "ops@example.com")
	t.Setenv("EMAIL_APP_PASSWORD", "app-pw")
	t.Setenv("EMAIL_PASSWORD", "smtp-pw")
	t.Setenv("IMAP_PORT", "1143")
	t.Setenv("EMAIL_PORT", "not-a-number")
	t.Setenv("YOUR_NAME", "Ops Bot")

	imap := IMAPConfig{Port: 993}
	smtp := SMTPConfig{Port: 587}
	var op OperatorConfig
	OverrideMailFromEnv(&imap, &smtp, &op)

	assert.Equal(t, "ops@example.com", imap.Username)
	assert.Equal(t, "ops@example.com", smtp.Username)
	assert.Equal(t, "ops@example.com", op.Email)
	assert.Equal(t, "app-pw", imap.Password)
	assert.Equal(t, "smtp-pw", smtp.Password)
	assert.Equal(t, 1143, imap.Port)
	assert.Equal(t, 587, smtp.Port)
	assert.Equal(t, "Ops Bot", op.Name)
}
