package config

import "time"

type Config struct {
	GracefulDuration time.Duration
	Metrics          Metrics
	Logs             Logs
	Service          Service
	ECS              ECS
	Kafka            Kafka
	DeadLetterQueue  DeadLetterQueue
}

type Metrics struct {
	Port int
}

type Logs struct {
	Level   int
	Encoder EncoderType
}

type EncoderType string

const (
	EncoderTypeJson    EncoderType = "json"
	EncoderTypeConsole EncoderType = "console"
)

// Service names the ECS service whose desired count follows the cluster size.
type Service struct {
	ARN string
}

type ECS struct {
	Region       string
	BaseEndpoint string
	Creds        AWSCreds
}

type DeadLetterQueue struct {
	S3    `mapstructure:",squash"`
	Retry Retry
}

type Retry struct {
	MaxAttempt uint
	Delay      time.Duration
}

type S3 struct {
	Bucket       string
	KeyPrefix    string
	BaseEndpoint string
	Region       string
	UsePathStyle bool
	Creds        AWSCreds
}

// AWSCreds are optional static credentials. When empty, the SDK default chain is used.
type AWSCreds struct {
	AccessKeyID     string
	SecretAccessKey string
}

func (c AWSCreds) IsSet() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != ""
}

func (c AWSCreds) String() string {
	if c.IsSet() {
		return "creds set"
	}

	return "no creds"
}

type Kafka struct {
	Broker   KafkaBroker
	Consumer KafkaConsumer
}

type KafkaBroker struct {
	URLs    string
	Version string
	TLS     bool
	Creds   KafkaCreds
}

type SASLMechanism string

const (
	SASLMechanismNone        SASLMechanism = ""
	SASLMechanismPlain       SASLMechanism = "PLAIN"
	SASLMechanismSCRAMSHA256 SASLMechanism = "SCRAM-SHA-256"
	SASLMechanismSCRAMSHA512 SASLMechanism = "SCRAM-SHA-512"
)

type KafkaCreds struct {
	Mechanism SASLMechanism
	Username  string
	Password  string
}

func (c KafkaCreds) String() string {
	if c.Mechanism == SASLMechanismNone {
		return "no sasl"
	}

	return string(c.Mechanism) + " creds set"
}

type KafkaConsumer struct {
	Topic string
	Group string
}
