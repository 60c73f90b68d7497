package processing_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
)

const (
	agentServiceArn = "arn:aws:ecs:us-east-1:123456789012:service/AgentService"
	clusterArn      = "arn:aws:ecs:us-east-1:123456789012:cluster/cluster1"
)

// capturedLogs records the message of every line logged through its logger.
type capturedLogs struct {
	mu       sync.Mutex
	messages []string
}

func newCapturingLogger() (logr.Logger, *capturedLogs) {
	logs := &capturedLogs{}

	logger := funcr.NewJSON(func(obj string) {
		line := map[string]interface{}{}

		err := json.Unmarshal([]byte(obj), &line)
		if err != nil {
			panic(err)
		}

		msg, _ := line["msg"].(string)

		logs.mu.Lock()
		defer logs.mu.Unlock()

		logs.messages = append(logs.messages, msg)
	}, funcr.Options{})

	return logger, logs
}

func (l *capturedLogs) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.messages...)
}

func loadJSON(name string, obj any) {
	b, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(b, obj)
	if err != nil {
		panic(err)
	}
}

func loadEvent(name string) *events.CloudWatchEvent {
	ret := &events.CloudWatchEvent{}
	loadJSON(name, ret)

	return ret
}

func testLogger() logr.Logger {
	return logr.Discard()
}
