package worker

import (
	"context"
)

// Result pairs a spec with what its worker produced.
type Result struct {
	Spec    Spec
	Summary *Summary
	Err     error
}

// Pool runs specs on at most N concurrent workers.
type Pool struct {
	n   int
	run func(context.Context, Spec) (*Summary, error)
}

func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{n: n, run: Run}
}

// WithRunner replaces how a single spec is executed.
func (p *Pool) WithRunner(fn func(context.Context, Spec) (*Summary, error)) *Pool {
	p.run = fn
	return p
}

// Run executes every spec and returns results in input order.
func (p *Pool) Run(ctx context.Context, specs []Spec) []Result {
	out := make([]Result, len(specs))
	if len(specs) == 0 {
		return out
	}

	type job struct {
		idx  int
		spec Spec
	}
	type result struct {
		idx int
		res Result
	}

	jobs := make(chan job)
	results := make(chan result)

	workers := min(p.n, len(specs))
	for w := 0; w < workers; w++ {
		go func() {
			for j := range jobs {
				sum, err := p.run(ctx, j.spec)
				results <- result{idx: j.idx, res: Result{Spec: j.spec, Summary: sum, Err: err}}
			}
		}()
	}
	go func() {
		for i, s := range specs {
			jobs <- job{idx: i, spec: s}
		}
		close(jobs)
	}()

	for collected := 0; collected < len(specs); collected++ {
		rx := <-results
		out[rx.idx] = rx.res
	}
	return out
}
