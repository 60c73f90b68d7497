package main

import "github.com/openshift-assisted/ecs-rebalancer/cmd/ecs-rebalancer/cmd"

func main() {
	cmd.Execute()
}
