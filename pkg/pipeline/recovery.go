package pipeline

import (
	"time"

	"github.com/HasinZaman/pipelined-server/pkg/logging"
)

// recoveryInterval is how often the recovery loop sweeps every pipeline
// looking for unhealthy components.
const recoveryInterval = 10 * time.Millisecond

// RunRecovery continuously inspects every pipeline and respawns any stage
// whose worker has terminated, swapping the replacement in against the
// existing input and output queues so pending work survives the swap.
// RunRecovery never returns; callers run it on its own goroutine.
func RunRecovery(pipelines []*Pipeline, logger *logging.Logger) {
	for {
		for i, p := range pipelines {
			for _, component := range p.components() {
				if !component.Healthy() {
					logger.Warnf("pipeline %d: respawning unhealthy stage", i)
					component.Respawn()
				}
			}
		}
		time.Sleep(recoveryInterval)
	}
}
