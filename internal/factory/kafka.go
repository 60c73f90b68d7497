package factory

import (
	"crypto/tls"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/IBM/sarama"

	"github.com/openshift-assisted/ecs-rebalancer/internal/config"
)

func CreateKafkaConsumer(kafkaConfig config.Kafka) (sarama.ConsumerGroup, error) {
	conf, err := createSaramaConfig(kafkaConfig)
	if err != nil {
		return nil, err
	}

	// Kafka URLs
	urls := strings.Split(kafkaConfig.Broker.URLs, ",")

	// kafka consumer group
	ret, err := sarama.NewConsumerGroup(urls, kafkaConfig.Consumer.Group, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer group: %w", err)
	}

	return ret, nil
}

func createSaramaConfig(kafkaConfig config.Kafka) (*sarama.Config, error) {
	conf := sarama.NewConfig()

	// mandatory configuration
	conf.Consumer.Offsets.AutoCommit.Enable = true
	conf.Consumer.Return.Errors = true

	// initial offset
	conf.Consumer.Offsets.Initial = sarama.OffsetOldest

	// clientID
	conf.ClientID = computeClientID(kafkaConfig.Consumer.Group)

	// kafka version
	version, err := sarama.ParseKafkaVersion(kafkaConfig.Broker.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to parse kafka version: %w", err)
	}

	conf.Version = version

	// tls
	if kafkaConfig.Broker.TLS {
		conf.Net.TLS.Enable = true
		conf.Net.TLS.Config = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	// sasl
	err = configureSASL(conf, kafkaConfig.Broker.Creds)
	if err != nil {
		return nil, err
	}

	return conf, nil
}

func configureSASL(conf *sarama.Config, creds config.KafkaCreds) error {
	switch creds.Mechanism {
	case config.SASLMechanismNone:
		return nil
	case config.SASLMechanismPlain:
		conf.Net.SASL.Mechanism = sarama.SASLTypePlaintext
	case config.SASLMechanismSCRAMSHA256:
		conf.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		conf.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient { return &XDGSCRAMClient{HashGeneratorFcn: SHA256} }
	case config.SASLMechanismSCRAMSHA512:
		conf.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		conf.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient { return &XDGSCRAMClient{HashGeneratorFcn: SHA512} }
	default:
		return fmt.Errorf("unsupported sasl mechanism %q", creds.Mechanism)
	}

	conf.Net.SASL.Enable = true
	conf.Net.SASL.User = creds.Username
	conf.Net.SASL.Password = creds.Password

	return nil
}

func computeClientID(groupID string) string {
	prefix, err := os.Hostname()
	if err != nil {
		prefix = fmt.Sprintf("clientid-%v", groupID)
	}

	return fmt.Sprintf("%s-%x", prefix, rand.Int31())
}
