package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// StageError identifies which stage of a pipeline run failed and why.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline runs an ordered list of stages against one shared context.
// Ordering is a hard requirement: verification gates everything, and
// both risk and investment analysis build on the financial-analysis
// output, so there is no parallel fan-out. The pipeline never retries;
// retry policy belongs to the caller, which keeps a run safe to
// re-invoke from scratch.
type Pipeline struct {
	log *zap.Logger
}

func NewPipeline(log *zap.Logger) *Pipeline {
	return &Pipeline{log: log}
}

// Run executes stages strictly in the given order, appending each
// output to pc before the next stage starts. On the first stage
// failure it aborts the remaining stages and returns a *StageError;
// outputs of already-completed stages stay in pc, but the caller must
// not treat the run as successful.
func (p *Pipeline) Run(ctx context.Context, stages []Stage, pc *Context) (string, error) {
	for _, st := range stages {
		p.log.Info("running stage", zap.String("stage", st.Name))
		out, err := st.Run(ctx, pc)
		if err != nil {
			p.log.Error("stage failed", zap.String("stage", st.Name), zap.Error(err))
			return "", &StageError{Stage: st.Name, Err: err}
		}
		pc.Append(st.Name, out)
		p.log.Info("stage complete",
			zap.String("stage", st.Name),
			zap.Int("output_chars", len(out)))
	}
	return pc.Transcript(), nil
}
