package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	prefix = "ECSREBALANCER"

	// Name of the variable read by the first versions of the rebalancer.
	legacyServiceEnv = "ECS_SERVICE_ARN"
)

var conf Config

// Parse reads the configuration file given as parameter.
// Environment variables take precedence over the file.
func Parse(confFile string) (*Config, error) {
	return parse(viper.GetViper(), confFile)
}

func parse(v *viper.Viper, confFile string) (*Config, error) {
	setDefault(v)

	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv() // read in environment variables that match

	err := v.BindEnv("service.arn", prefix+"_SERVICE_ARN", legacyServiceEnv)
	if err != nil {
		return &conf, fmt.Errorf("failed to bind service arn env: %w", err)
	}

	if len(confFile) > 0 {
		v.SetConfigFile(confFile)

		err := v.ReadInConfig()
		if err != nil {
			return &conf, fmt.Errorf("failed to read config file %v: %w", confFile, err)
		}
	}

	err = v.Unmarshal(&conf)
	if err != nil {
		return &conf, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &conf, nil
}

// ServiceARN returns the configured service identifier, possibly empty.
func ServiceARN() string {
	return conf.Service.ARN
}

func setDefault(v *viper.Viper) {
	v.SetDefault("logs.level", 0)
	v.SetDefault("logs.encoder", EncoderTypeConsole)
	v.SetDefault("gracefulDuration", "5s")
	v.SetDefault("metrics.port", 7777)

	// AutomaticEnv only resolves keys viper already knows about, so every
	// key that may come from the environment needs a default.
	v.SetDefault("service.arn", "")
	v.SetDefault("ecs.region", "")
	v.SetDefault("ecs.baseEndpoint", "")
	v.SetDefault("ecs.creds.accessKeyID", "")
	v.SetDefault("ecs.creds.secretAccessKey", "")

	v.SetDefault("kafka.broker.urls", "")
	v.SetDefault("kafka.broker.version", "3.6.0")
	v.SetDefault("kafka.broker.tls", false)
	v.SetDefault("kafka.broker.creds.mechanism", SASLMechanismNone)
	v.SetDefault("kafka.broker.creds.username", "")
	v.SetDefault("kafka.broker.creds.password", "")
	v.SetDefault("kafka.consumer.topic", "")
	v.SetDefault("kafka.consumer.group", "ecs-rebalancer")

	v.SetDefault("deadLetterQueue.bucket", "")
	v.SetDefault("deadLetterQueue.keyPrefix", "dlq")
	v.SetDefault("deadLetterQueue.region", "")
	v.SetDefault("deadLetterQueue.baseEndpoint", "")
	v.SetDefault("deadLetterQueue.usePathStyle", false)
	v.SetDefault("deadLetterQueue.creds.accessKeyID", "")
	v.SetDefault("deadLetterQueue.creds.secretAccessKey", "")
	v.SetDefault("deadLetterQueue.retry.maxAttempt", 3)
	v.SetDefault("deadLetterQueue.retry.delay", "200ms")
}
