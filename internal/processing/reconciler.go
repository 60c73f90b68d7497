package processing

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecs"
	"github.com/go-logr/logr"

	"github.com/openshift-assisted/ecs-rebalancer/internal/domain/entity"
	"github.com/openshift-assisted/ecs-rebalancer/internal/domain/repo"
	"github.com/openshift-assisted/ecs-rebalancer/internal/log"
)

type Outcome string

const (
	OutcomeSkipped         Outcome = "skipped"
	OutcomeServiceNotFound Outcome = "service_not_found"
	OutcomeBalanced        Outcome = "balanced"
	OutcomeUpdated         Outcome = "updated"
)

// Result describes what a reconciliation observed and did.
// Update is only set when the desired count was changed.
type Result struct {
	Outcome             Outcome                  `json:"outcome"`
	Target              entity.ServiceDescriptor `json:"target"`
	DesiredCount        int32                    `json:"desiredCount"`
	RegisteredInstances int32                    `json:"registeredInstances"`
	Update              *ecs.UpdateServiceOutput `json:"update,omitempty"`
}

// Reconciler sets the desired count of a service to the number of container instances registered in its cluster.
type Reconciler struct {
	client repo.ECSClient
	logger logr.Logger
}

func NewReconciler(client repo.ECSClient) Reconciler {
	return Reconciler{
		client: client,
		logger: log.Logger(),
	}
}

func (r Reconciler) WithLogger(logger logr.Logger) Reconciler {
	r.logger = logger

	return r
}

// Reconcile does at most three sequential ECS calls and no retry.
// ECS errors are returned as is.
func (r Reconciler) Reconcile(ctx context.Context, target entity.ServiceDescriptor) (Result, error) {
	ret := Result{Target: target}

	services, err := r.client.DescribeServices(ctx, &ecs.DescribeServicesInput{
		Cluster:  aws.String(target.ClusterID),
		Services: []string{target.ServiceID},
	})
	if err != nil {
		return ret, err
	}

	service, found := soleService(services.Services)
	if !found {
		r.logger.Info(fmt.Sprintf("SKIP: Service not found in cluster %s", target.ClusterID))

		ret.Outcome = OutcomeServiceNotFound

		return ret, nil
	}

	if isARN(target.ServiceID) && aws.ToString(service.ServiceArn) != target.ServiceID {
		r.logger.Info("Described service doesn't match the requested one, using it anyway",
			"requested", target.ServiceID,
			"described", aws.ToString(service.ServiceArn),
		)
	}

	ret.DesiredCount = service.DesiredCount

	clusters, err := r.client.DescribeClusters(ctx, &ecs.DescribeClustersInput{
		Clusters: []string{target.ClusterID},
	})
	if err != nil {
		return ret, err
	}

	cluster, found := soleCluster(clusters.Clusters)
	if !found {
		return ret, fmt.Errorf("%w: %s", ErrClusterNotFound, target.ClusterID)
	}

	ret.RegisteredInstances = cluster.RegisteredContainerInstancesCount

	if ret.DesiredCount == ret.RegisteredInstances {
		r.logger.Info(fmt.Sprintf("SKIP: Cluster %s has %d desired tasks for %d registered instances.",
			target.ClusterID, ret.DesiredCount, ret.RegisteredInstances))

		ret.Outcome = OutcomeBalanced

		return ret, nil
	}

	r.logger.Info(fmt.Sprintf("Adjusting cluster '%s' to run %d tasks of service '%s'",
		target.ClusterID, ret.RegisteredInstances, target.ServiceID),
		"previousDesiredCount", ret.DesiredCount,
	)

	update, err := r.client.UpdateService(ctx, &ecs.UpdateServiceInput{
		Cluster:      aws.String(target.ClusterID),
		Service:      aws.String(target.ServiceID),
		DesiredCount: aws.Int32(ret.RegisteredInstances),
	})
	if err != nil {
		return ret, err
	}

	r.logger.Info("Service updated", "response", describeUpdate(update))

	ret.Outcome = OutcomeUpdated
	ret.Update = update

	return ret, nil
}

func describeUpdate(update *ecs.UpdateServiceOutput) map[string]interface{} {
	if update == nil || update.Service == nil {
		return nil
	}

	return map[string]interface{}{
		"serviceArn":   aws.ToString(update.Service.ServiceArn),
		"clusterArn":   aws.ToString(update.Service.ClusterArn),
		"desiredCount": update.Service.DesiredCount,
		"runningCount": update.Service.RunningCount,
		"pendingCount": update.Service.PendingCount,
		"status":       aws.ToString(update.Service.Status),
	}
}
