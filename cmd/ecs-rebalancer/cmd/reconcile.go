package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/cobra"

	"github.com/openshift-assisted/ecs-rebalancer/internal/domain/entity"
	"github.com/openshift-assisted/ecs-rebalancer/internal/factory"
	"github.com/openshift-assisted/ecs-rebalancer/internal/processing"
)

const stdinFile = "-"

var (
	eventFile string
	cluster   string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile the service once, from an event or for a given cluster",
	Args:  cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if (eventFile == "") == (cluster == "") {
			return fmt.Errorf("exactly one of --event or --cluster is required")
		}

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		ecsClient, err := factory.CreateECSClient(ctx, conf.ECS)
		if err != nil {
			return fmt.Errorf("failed to create ecs client: %w", err)
		}

		reconciler := processing.NewReconciler(ecsClient)

		var result processing.Result

		if cluster != "" {
			if conf.Service.ARN == "" {
				return processing.ErrMissingConfiguration
			}

			result, err = reconciler.Reconcile(ctx, entity.ServiceDescriptor{
				ClusterID: cluster,
				ServiceID: conf.Service.ARN,
			})
		} else {
			var event *events.CloudWatchEvent

			event, err = readEvent(cmd.InOrStdin(), eventFile)
			if err != nil {
				return err
			}

			handler := processing.NewMain(processing.NewClassifier(conf.Service.ARN), reconciler)

			result, err = handler.Handle(ctx, event)
		}

		if err != nil {
			return fmt.Errorf("reconciliation failed: %w", err)
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")

		return encoder.Encode(result)
	},
}

func readEvent(stdin io.Reader, name string) (*events.CloudWatchEvent, error) {
	in := stdin

	if name != stdinFile {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open event file: %w", err)
		}
		defer f.Close()

		in = f
	}

	// An empty input is an empty event, which Classify rejects.
	b, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("failed to read event: %w", err)
	}

	if len(b) == 0 {
		return nil, nil
	}

	ret := &events.CloudWatchEvent{}

	err = json.Unmarshal(b, ret)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}

	return ret, nil
}

func init() {
	reconcileCmd.Flags().StringVar(&eventFile, "event", "", "file holding an EventBridge event, - for stdin")
	reconcileCmd.Flags().StringVar(&cluster, "cluster", "", "cluster to reconcile without an event")

	rootCmd.AddCommand(reconcileCmd)
}
