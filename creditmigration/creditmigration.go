// Package creditmigration implements the correlated Monte-Carlo
// rating-migration engine: for each simulated path, a shared
// asset-correlation structure drives correlated standard-normal
// draws that are sliced into per-period rating transitions via the
// migration matrix (§4 Credit Migration MC; SPEC_FULL.md §C.6).
package creditmigration

import (
	"context"
	"hash/fnv"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/google/uuid"

	"github.com/meenmo-clo/engine/errs"
	"github.com/meenmo-clo/engine/rating"
)

// TransitionEvent records one simulated rating transition for an
// obligation within a path (SPEC_FULL.md §C.6: the original records
// every transition, not just a terminal distribution).
type TransitionEvent struct {
	ObligationID string
	Period       int
	From         rating.MoodyRating
	To           rating.MoodyRating
}

// PathResult is one Monte-Carlo path's outcome: the terminal rating
// per obligation plus the full transition history.
type PathResult struct {
	RunID         string
	PathIndex     int
	TerminalRating map[string]rating.MoodyRating
	Transitions   []TransitionEvent
}

// Config bundles the simulation inputs: starting ratings, the
// correlation matrix between obligations (by index, matching
// ObligationIDs order), the transition matrix, the number of periods,
// and a uniform source driving both the correlated normal draws and
// the per-obligation transition lookup.
type Config struct {
	ObligationIDs  []string
	StartRating    map[string]rating.MoodyRating
	Correlation    *mat.SymDense // n x n, positive definite
	Matrix         *rating.TransitionMatrix
	Periods        int
	Rand           *rand.Rand // drives every draw; pass a seeded source for reproducible paths
}

// Engine runs correlated rating-migration paths via Cholesky
// factorization of the correlation matrix: independent standard-
// normal draws are transformed into correlated draws, each mapped
// through the standard-normal CDF into a uniform used to look up the
// transition matrix's cumulative row (§4).
type Engine struct {
	cfg   Config
	chol  mat.Cholesky
	n     int
}

// New builds an Engine, factoring cfg.Correlation via Cholesky
// (§4: "Cholesky factorization of the asset-correlation matrix").
func New(cfg Config) (*Engine, error) {
	const op = "creditmigration.New"
	n := len(cfg.ObligationIDs)
	if cfg.Correlation == nil || cfg.Correlation.SymmetricDim() != n {
		return nil, errs.New(errs.Validation, op, "correlation matrix dimension must match obligation count")
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(cfg.Correlation); !ok {
		return nil, errs.New(errs.Numerical, op, "correlation matrix is not positive definite")
	}

	return &Engine{cfg: cfg, chol: chol, n: n}, nil
}

// RunPath simulates one path: correlated normal draws per obligation
// per period, each mapped to a rating transition.
func (e *Engine) RunPath() (PathResult, error) {
	src := e.cfg.Rand
	if src == nil {
		src = rand.New(rand.NewSource(1))
	}
	return e.runPathWithSource(src)
}

// seedFor derives a path's deterministic seed from a global seed and
// its path index (§5: "paths seeded by a splittable PRNG or by seed =
// hash(global_seed, path_index)"), so a path's outcome depends only on
// its own index, never on worker-pool scheduling order.
func seedFor(globalSeed int64, pathIndex int) int64 {
	h := fnv.New64a()
	var buf [16]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(globalSeed >> (8 * i))
		buf[8+i] = byte(int64(pathIndex) >> (8 * i))
	}
	h.Write(buf[:])
	return int64(h.Sum64())
}

// RunPathSeeded simulates one path using the deterministic seed
// derived from (globalSeed, pathIndex). The engine's factored
// correlation matrix and transition matrix are read-only after
// New/Factorize and may be shared across goroutines calling this
// concurrently (§5: "read-only after setup and freely shared across
// paths"); each call constructs its own *rand.Rand so no two callers
// ever touch the same PRNG state.
func (e *Engine) RunPathSeeded(globalSeed int64, pathIndex int) (PathResult, error) {
	src := rand.New(rand.NewSource(seedFor(globalSeed, pathIndex)))
	result, err := e.runPathWithSource(src)
	result.PathIndex = pathIndex
	return result, err
}

func (e *Engine) runPathWithSource(src *rand.Rand) (PathResult, error) {
	const op = "creditmigration.RunPath"
	if e.cfg.Periods <= 0 {
		return PathResult{}, errs.New(errs.Validation, op, "periods must be > 0")
	}

	var lower mat.TriDense
	e.chol.LTo(&lower)

	current := make(map[string]rating.MoodyRating, e.n)
	for _, id := range e.cfg.ObligationIDs {
		current[id] = e.cfg.StartRating[id]
	}

	result := PathResult{RunID: uuid.NewString(), TerminalRating: current}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	for p := 1; p <= e.cfg.Periods; p++ {
		independent := mat.NewVecDense(e.n, nil)
		for i := 0; i < e.n; i++ {
			independent.SetVec(i, normal.Rand())
		}
		correlated := mat.NewVecDense(e.n, nil)
		correlated.MulVec(&lower, independent)

		for i, id := range e.cfg.ObligationIDs {
			u := normal.CDF(correlated.AtVec(i))
			from := current[id]
			to := e.cfg.Matrix.Transition(from, u)
			if to != from {
				result.Transitions = append(result.Transitions, TransitionEvent{
					ObligationID: id, Period: p, From: from, To: to,
				})
				current[id] = to
			}
		}
	}

	return result, nil
}

// RunPaths simulates numPaths independent paths using cfg.
func (e *Engine) RunPaths(numPaths int) ([]PathResult, error) {
	paths := make([]PathResult, 0, numPaths)
	for i := 0; i < numPaths; i++ {
		p, err := e.RunPath()
		if err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// RunPathsMonteCarlo runs numPaths paths across a workers-sized pool,
// each path seeded deterministically from (globalSeed, path index) so
// the result is independent of scheduling order — two calls with the
// same (globalSeed, numPaths) against an equivalently-built Engine
// produce identical terminal ratings and transition histories per
// path, whatever the worker count (§6 "Determinism"; §8 scenario 6).
// Each path's RunID is a fresh uuid and differs between calls.
// Workers is clamped to at least 1. The loop checks ctx
// between paths (§5: "Monte-Carlo ... loops must check a cancellation
// signal between paths") and returns errs.Cancelled with no partial
// result mixing if ctx is done before every path completes.
func (e *Engine) RunPathsMonteCarlo(ctx context.Context, numPaths int, globalSeed int64, workers int) ([]PathResult, error) {
	const op = "creditmigration.RunPathsMonteCarlo"
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan int, numPaths)
	for i := 0; i < numPaths; i++ {
		jobs <- i
	}
	close(jobs)

	results := make([]PathResult, numPaths)
	errOnce := make([]error, numPaths)
	var wg sync.WaitGroup
	var cancelled bool
	var mu sync.Mutex

	worker := func() {
		defer wg.Done()
		for idx := range jobs {
			select {
			case <-ctx.Done():
				mu.Lock()
				cancelled = true
				mu.Unlock()
				return
			default:
			}
			result, err := e.RunPathSeeded(globalSeed, idx)
			results[idx] = result
			errOnce[idx] = err
		}
	}

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go worker()
	}
	wg.Wait()

	if cancelled {
		return nil, errs.New(errs.Cancelled, op, "monte-carlo run cancelled")
	}
	for _, err := range errOnce {
		if err != nil {
			return nil, err
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].PathIndex < results[j].PathIndex })
	return results, nil
}

// DefaultRate computes the fraction of paths in which obligationID
// ended the simulation in the D (default) state, a figure that can be
// compared with the migration matrix's SteadyStateCCCToD value.
func DefaultRate(paths []PathResult, obligationID string) float64 {
	if len(paths) == 0 {
		return 0
	}
	defaults := 0
	for _, p := range paths {
		if p.TerminalRating[obligationID] == rating.D {
			defaults++
		}
	}
	return float64(defaults) / float64(len(paths))
}
