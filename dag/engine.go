package dag

import (
	"context"
	"sync"
	"time"
)

// NodeFunc does the work of one node.
type NodeFunc func(ctx context.Context, name string) error

// Engine executes nodes with bounded parallelism.
type Engine struct {
	// MaxParallel limits concurrent nodes (0 = unlimited, 1 = inline in
	// submission order).
	MaxParallel int
}

// Execute runs fn for every name, at most MaxParallel at a time, and waits
// for all of them. Nodes not yet started when ctx ends are skipped.
func (e *Engine) Execute(ctx context.Context, names []string, fn NodeFunc) *Result {
	start := time.Now()
	result := &Result{
		Order:       names,
		NodeResults: make(map[string]NodeResult, len(names)),
	}
	if e.concurrency(len(names)) == 1 {
		for _, name := range names {
			result.NodeResults[name] = e.executeNode(ctx, name, fn)
		}
	} else {
		e.executeLevel(ctx, names, fn, result)
	}
	result.Duration = time.Since(start)
	return result
}

// ExecuteLevels runs the graph level by level in dependency order. It stops
// after the first level containing a failure, leaving later nodes out of the
// result.
func (e *Engine) ExecuteLevels(ctx context.Context, g *Graph, fn NodeFunc) (*Result, error) {
	start := time.Now()

	levels, err := BuildLevels(g)
	if err != nil {
		return nil, err
	}

	result := &Result{NodeResults: make(map[string]NodeResult)}
	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lr := e.Execute(ctx, level, fn)
		result.Order = append(result.Order, level...)
		for name, nr := range lr.NodeResults {
			result.NodeResults[name] = nr
		}
		if len(lr.Failed()) > 0 {
			break
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (e *Engine) executeLevel(ctx context.Context, names []string, fn NodeFunc, result *Result) {
	var mu sync.Mutex
	var wg sync.WaitGroup

	sem := make(chan struct{}, e.concurrency(len(names)))

	for _, name := range names {
		wg.Add(1)
		go func(nodeName string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			nr := e.executeNode(ctx, nodeName, fn)
			mu.Lock()
			result.NodeResults[nodeName] = nr
			mu.Unlock()
		}(name)
	}

	wg.Wait()
}

func (e *Engine) executeNode(ctx context.Context, name string, fn NodeFunc) NodeResult {
	if ctx.Err() != nil {
		return NodeResult{Name: name, Status: StatusSkipped}
	}
	start := time.Now()
	err := fn(ctx, name)
	duration := time.Since(start)

	if err != nil {
		return NodeResult{
			Name:     name,
			Status:   StatusFailed,
			Duration: duration,
			Error:    err,
		}
	}

	return NodeResult{
		Name:     name,
		Status:   StatusCompleted,
		Duration: duration,
	}
}

func (e *Engine) concurrency(size int) int {
	if size == 0 {
		return 1
	}
	if e.MaxParallel <= 0 || e.MaxParallel > size {
		return size
	}
	return e.MaxParallel
}
