package processing

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/ecs/types"
)

// soleService returns the record of a DescribeServices call made with exactly one service.
// Extra records are ignored: the first one is the answer.
func soleService(services []types.Service) (types.Service, bool) {
	if len(services) == 0 {
		return types.Service{}, false
	}

	return services[0], true
}

// soleCluster is the DescribeClusters counterpart of soleService.
func soleCluster(clusters []types.Cluster) (types.Cluster, bool) {
	if len(clusters) == 0 {
		return types.Cluster{}, false
	}

	return clusters[0], true
}

// isARN reports whether id is an ARN rather than a short name.
func isARN(id string) bool {
	return strings.HasPrefix(id, "arn:")
}
