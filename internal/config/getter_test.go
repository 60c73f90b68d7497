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

func TestParseDefaults(t *testing.T) {
	c, err := parse(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, EncoderTypeConsole, c.Logs.Encoder)
	assert.Equal(t, 7777, c.Metrics.Port)
	assert.Equal(t, 5*time.Second, c.GracefulDuration)
	assert.Equal(t, "ecs-rebalancer", c.Kafka.Consumer.Group)
	assert.Equal(t, uint(3), c.DeadLetterQueue.Retry.MaxAttempt)
	assert.Equal(t, "dlq", c.DeadLetterQueue.KeyPrefix)
	assert.Empty(t, c.Service.ARN)
}

func TestParseServiceARN(t *testing.T) {
	type testCase struct {
		name     string
		env      map[string]string
		expected string
	}

	cases := []testCase{
		{
			name:     "legacy variable",
			env:      map[string]string{"ECS_SERVICE_ARN": "arn:aws:ecs:us-east-1:123456789012:service/legacy"},
			expected: "arn:aws:ecs:us-east-1:123456789012:service/legacy",
		},
		{
			name:     "prefixed variable",
			env:      map[string]string{"ECSREBALANCER_SERVICE_ARN": "arn:aws:ecs:us-east-1:123456789012:service/prefixed"},
			expected: "arn:aws:ecs:us-east-1:123456789012:service/prefixed",
		},
		{
			name: "prefixed variable wins",
			env: map[string]string{
				"ECS_SERVICE_ARN":           "arn:aws:ecs:us-east-1:123456789012:service/legacy",
				"ECSREBALANCER_SERVICE_ARN": "arn:aws:ecs:us-east-1:123456789012:service/prefixed",
			},
			expected: "arn:aws:ecs:us-east-1:123456789012:service/prefixed",
		},
		{
			name: "nothing set",
		},
	}

	for i := range cases {
		c := cases[i]

		t.Run(c.name, func(t *testing.T) {
			t.Setenv("ECS_SERVICE_ARN", "")
			t.Setenv("ECSREBALANCER_SERVICE_ARN", "")

			for k, v := range c.env {
				t.Setenv(k, v)
			}

			parsed, err := parse(viper.New(), "")
			require.NoError(t, err)
			assert.Equal(t, c.expected, parsed.Service.ARN)
			assert.Equal(t, c.expected, ServiceARN())
		})
	}
}

func TestParseFile(t *testing.T) {
	content := `
logs:
  level: 2
  encoder: json
service:
  arn: arn:aws:ecs:eu-west-1:123456789012:service/agent
ecs:
  region: eu-west-1
deadLetterQueue:
  bucket: my-dlq
  retry:
    maxAttempt: 5
    delay: 1s
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("ECS_SERVICE_ARN", "")
	t.Setenv("ECSREBALANCER_SERVICE_ARN", "")

	c, err := parse(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, 2, c.Logs.Level)
	assert.Equal(t, EncoderTypeJson, c.Logs.Encoder)
	assert.Equal(t, "arn:aws:ecs:eu-west-1:123456789012:service/agent", c.Service.ARN)
	assert.Equal(t, "eu-west-1", c.ECS.Region)
	assert.Equal(t, "my-dlq", c.DeadLetterQueue.Bucket)
	assert.Equal(t, uint(5), c.DeadLetterQueue.Retry.MaxAttempt)
	assert.Equal(t, time.Second, c.DeadLetterQueue.Retry.Delay)
}

func TestParseMissingFile(t *testing.T) {
	_, err := parse(viper.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestCredsString(t *testing.T) {
	assert.Equal(t, "no creds", AWSCreds{}.String())
	assert.Equal(t, "no creds", AWSCreds{AccessKeyID: "id"}.String())
	assert.Equal(t, "creds set", AWSCreds{AccessKeyID: "id", SecretAccessKey: "secret"}.String())

	assert.Equal(t, "no sasl", KafkaCreds{}.String())
	assert.Equal(t, "SCRAM-SHA-512 creds set", KafkaCreds{Mechanism: SASLMechanismSCRAMSHA512, Password: "p"}.String())
}
