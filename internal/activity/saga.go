package activity

import (
	"context"
	"fmt"

	"github.com/xavierca1/pipeline-dashboard/internal/logger"
)

type step struct {
	name       string
	fn         func(context.Context) error
	bestEffort bool
}

// saga runs writes in order. A failing required step stops the run; earlier
// writes stay persisted. A failing best-effort step is logged and recorded.
type saga struct {
	steps []step
	log   logger.Logger
}

func newSaga(log logger.Logger) *saga {
	return &saga{log: log}
}

func (s *saga) add(name string, fn func(context.Context) error) {
	s.steps = append(s.steps, step{name: name, fn: fn})
}

func (s *saga) addBestEffort(name string, fn func(context.Context) error) {
	s.steps = append(s.steps, step{name: name, fn: fn, bestEffort: true})
}

// execute returns the names of failed best-effort steps with their errors.
func (s *saga) execute(ctx context.Context) (map[string]error, error) {
	skipped := map[string]error{}
	for i, st := range s.steps {
		err := st.fn(ctx)
		if err == nil {
			continue
		}
		if st.bestEffort {
			s.log.Warn("follow-up write failed", "step", st.name, "error", err)
			skipped[st.name] = err
			continue
		}
		return skipped, fmt.Errorf("step %q failed after %d completed: %w", st.name, i, err)
	}
	return skipped, nil
}
