package processingerror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/common/version"

	"github.com/openshift-assisted/ecs-rebalancer/internal/common"
	"github.com/openshift-assisted/ecs-rebalancer/internal/log"
	"github.com/openshift-assisted/ecs-rebalancer/pkg/pipeline"
)

const (
	unknownHostname = "<unknown>"

	categoryErrDLQWrite = "dlq_write"

	keyTemplate        = "<prefix>/<year>/<month>/<day>/<topic>/<partition>-<offset>.json"
	originlessTemplate = "<prefix>/<year>/<month>/<day>/no-origin/<category>-<nano>.json"
	originlessCategory = "unknown"
)

// PutObjectAPI is the part of *s3.Client used by S3Writer.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Writer struct {
	s3client PutObjectAPI
	clock    clockwork.Clock

	bucket string
	prefix string

	hostname string
}

func NewS3Writer(s3client PutObjectAPI, bucket string, prefix string) S3Writer {
	hostname, err := os.Hostname()
	if err != nil {
		log.Logger().Error(err, "failed to get hostname, falling backing to "+unknownHostname)

		hostname = unknownHostname
	}

	return S3Writer{
		s3client: s3client,
		clock:    clockwork.NewRealClock(),
		bucket:   bucket,
		prefix:   strings.TrimSuffix(prefix, "/"),
		hostname: hostname,
	}
}

func (r S3Writer) WithClock(clock clockwork.Clock) S3Writer {
	r.clock = clock

	return r
}

// WriteProcessingError writes one document per failed event.
// Server side failures are returned as retryable errors.
func (r S3Writer) WriteProcessingError(ctx context.Context, pErr pipeline.ErrProcessingError) error {
	now := r.clock.Now()

	// Create ProcessingError
	obj := r.createProcessingError(pErr, now)

	// Marshal ProcessingError
	b, err := json.Marshal(obj)
	if err != nil {
		return common.NewErrProcessingError(err, categoryErrDLQWrite, nil, "failed to marshal local model")
	}

	// Compute object key
	key := r.computeObjectKey(pErr, now)

	// Write file
	params := &s3.PutObjectInput{
		Bucket:      &r.bucket,
		Key:         &key,
		Body:        bytes.NewReader(b),
		ContentType: aws.String("application/json"),
	}

	_, err = r.s3client.PutObject(ctx, params)
	if err != nil {
		if isServerError(err) {
			return common.NewRetryableErrProcessingError(err, categoryErrDLQWrite, nil, "failed to write %s in s3", key)
		}

		return common.NewErrProcessingError(err, categoryErrDLQWrite, nil, "failed to write %s in s3", key)
	}

	return nil
}

func (r S3Writer) createProcessingError(pErr pipeline.ErrProcessingError, now time.Time) ProcessingError {
	ret := ProcessingError{
		ProcessingContext: ProcessingContext{
			Component: Component{
				Version:  version.Version,
				Branch:   version.Branch,
				Revision: version.Revision,
			},
			Time: now,
			Host: r.hostname,
		},
		Sources: Sources{
			Additional: make([]KeyValue, 0, len(pErr.AdditionalInputs)),
		},
		Reason: Reason{
			Category:  pErr.Category,
			Retryable: errors.Is(pErr, pipeline.ErrRetryableError),
		},
	}

	if pErr.Origin != nil {
		ret.Sources.Main = &Source{
			Topic:     pErr.Origin.Topic,
			Partition: pErr.Origin.Partition,
			Offset:    pErr.Origin.Offset,
			Timestamp: pErr.Origin.Timestamp,
			Payload:   pErr.Origin.Payload,
		}
	}

	if pErr.Unwrap() != nil {
		ret.Reason.Error = pErr.Error()
	}

	for _, kv := range pErr.AdditionalInputs {
		ret.Sources.Additional = append(ret.Sources.Additional, KeyValue{
			Source: kv.Source,
			Key:    kv.Key,
			Value:  kv.Value,
		})
	}

	return ret
}

func (r S3Writer) computeObjectKey(pErr pipeline.ErrProcessingError, now time.Time) string {
	if pErr.Origin == nil {
		category := strings.TrimSpace(pErr.Category)
		if category == "" {
			category = originlessCategory
		}

		now = now.UTC()

		template := strings.NewReplacer(
			"<prefix>", r.prefix,
			"<year>", fmt.Sprintf("%04d", now.Year()),
			"<month>", fmt.Sprintf("%02d", now.Month()),
			"<day>", fmt.Sprintf("%02d", now.Day()),
			"<category>", category,
			"<nano>", fmt.Sprintf("%d", now.UnixNano()),
		)

		return template.Replace(originlessTemplate)
	}

	timestamp := pErr.Origin.Timestamp.UTC()

	template := strings.NewReplacer(
		"<prefix>", r.prefix,
		"<year>", fmt.Sprintf("%04d", timestamp.Year()),
		"<month>", fmt.Sprintf("%02d", timestamp.Month()),
		"<day>", fmt.Sprintf("%02d", timestamp.Day()),
		"<topic>", pErr.Origin.Topic,
		"<partition>", fmt.Sprintf("%d", pErr.Origin.Partition),
		"<offset>", fmt.Sprintf("%d", pErr.Origin.Offset),
	)

	return template.Replace(keyTemplate)
}

func isServerError(err error) bool {
	var statusErr interface{ HTTPStatusCode() int }
	if !errors.As(err, &statusErr) {
		return false
	}

	return statusErr.HTTPStatusCode() >= http.StatusInternalServerError
}
