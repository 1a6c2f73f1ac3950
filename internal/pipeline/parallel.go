package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// BranchError identifies which parallel branch failed.
type BranchError struct {
	Branch string
	Err    error
}

func (e *BranchError) Error() string {
	return fmt.Sprintf("pipeline: branch %q failed: %v", e.Branch, e.Err)
}

func (e *BranchError) Unwrap() error { return e.Err }

// RunParallel invokes every branch with its own copy of vars concurrently
// and joins on all of them. All branches must succeed; the first failure
// cancels the remaining branches and is returned as a *BranchError. Branch
// completion order carries no guarantee.
func RunParallel(ctx context.Context, branches map[string]*Pipeline, vars map[string]string) (map[string]*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type outcome struct {
		branch string
		result *Result
		err    error
	}

	outcomes := make(chan outcome, len(branches))
	var wg sync.WaitGroup

	for name, p := range branches {
		wg.Add(1)
		go func(name string, p *Pipeline) {
			defer wg.Done()
			result, err := p.Run(ctx, copyVars(vars))
			outcomes <- outcome{branch: name, result: result, err: err}
		}(name, p)
	}

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	results := make(map[string]*Result, len(branches))
	var firstErr *BranchError
	for o := range outcomes {
		if o.err != nil {
			if firstErr == nil {
				firstErr = &BranchError{Branch: o.branch, Err: o.err}
				cancel()
			}
			continue
		}
		results[o.branch] = o.result
	}

	if firstErr != nil {
		log.Debug().
			Str("branch", firstErr.Branch).
			Err(firstErr.Err).
			Msg("parallel run failed")
		return nil, firstErr
	}
	return results, nil
}

// copyVars gives each branch an independent input mapping.
func copyVars(vars map[string]string) map[string]string {
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}
