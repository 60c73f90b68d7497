package entity

// ServiceDescriptor names the service to reconcile and the cluster it runs in.
type ServiceDescriptor struct {
	ClusterID string `json:"clusterId"`
	ServiceID string `json:"serviceId"`
}

// ContainerInstanceStateChange is the detail of an "ECS Container Instance State Change" event.
// Only ClusterArn is required, the other fields are kept for diagnostics.
type ContainerInstanceStateChange struct {
	ClusterArn           string `json:"clusterArn"`
	ContainerInstanceArn string `json:"containerInstanceArn,omitempty"`
	EC2InstanceID        string `json:"ec2InstanceId,omitempty"`
	Status               string `json:"status,omitempty"`
	AgentConnected       bool   `json:"agentConnected,omitempty"`
	Version              int64  `json:"version,omitempty"`
}
