package common

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/dustin/go-humanize"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/openshift-assisted/ecs-rebalancer/internal/log"
)

const (
	// default ratio from the memlimit pkg
	memLimitRatio = 0.9
)

// CloseFunc releases a resource created by a factory.
type CloseFunc func(context.Context) error

// SetupSignalHandler cancels the returned context on the first SIGINT or SIGTERM.
// A second signal exits the process.
func SetupSignalHandler(ctx context.Context) context.Context {
	ret, cancel := context.WithCancel(ctx)

	c := make(chan os.Signal, 2)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		logger := log.Logger()

		sig := <-c
		logger.V(1).Info("Signal received to stop", "signal", sig.String())
		cancel()

		sig = <-c
		logger.V(0).Info("Re-receiving stop signal, exit directly", "signal", sig.String())
		os.Exit(1)
	}()

	return ret
}

// SetMaxProcs aligns GOMAXPROCS with the container cpu quota.
func SetMaxProcs() error {
	logger := log.Logger()

	// maxprocs logs printf style whereas logr expects $msg, $key1, $value1, ...
	_, err := maxprocs.Set(maxprocs.Logger(func(msg string, args ...interface{}) {
		logger.V(1).Info(fmt.Sprintf(msg, args...))
	}))
	if err != nil {
		return fmt.Errorf("failed to set max procs: %w", err)
	}

	return nil
}

// SetMemLimit sets GOMEMLIMIT from the cgroup memory limit. A missing limit is not an error.
func SetMemLimit() error {
	logger := log.Logger()

	limit, err := memlimit.SetGoMemLimit(memLimitRatio)
	if err != nil {
		return fmt.Errorf("failed to set go mem limit: %w", err)
	}

	if limit == 0 {
		logger.V(1).Info("No memory limit found, go memlimit left untouched")

		return nil
	}

	logger.V(1).Info("Go memlimit configured", "ratio", memLimitRatio, "limit", humanize.IBytes(uint64(limit)))

	return nil
}
