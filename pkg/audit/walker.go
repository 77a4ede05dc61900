package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/semaphore"
)

// frontierEntry is one pending (action, depth, parent) tuple awaiting
// dispatch within a BFS level.
type frontierEntry struct {
	action ActionRef
	depth  int
	parent string // identity key of the discoverer; empty for roots
}

// processedNode is the retired result of running the pipeline on one
// frontier entry.
type processedNode struct {
	key string
	ctx AuditContext
}

// Walker drives bounded-concurrency breadth-first traversal of the action
// dependency graph (spec.md §4.7). A Walker is safe to reuse across calls
// to Walk — all per-walk state is local to the call.
type Walker struct {
	pipeline       Pipeline
	maxDepth       int  // meaningful only when maxDepthSet
	maxDepthSet    bool
	maxConcurrency int
	logger         hclog.Logger
}

// NewWalker constructs a Walker. maxDepth < 0 means unlimited depth.
// maxConcurrency must be positive.
func NewWalker(pipeline Pipeline, maxDepth int, maxConcurrency int, logger hclog.Logger) (*Walker, error) {
	if maxConcurrency <= 0 {
		return nil, fmt.Errorf("max_concurrency must be positive, got %d", maxConcurrency)
	}
	w := &Walker{
		pipeline:       pipeline,
		maxConcurrency: maxConcurrency,
		logger:         logger,
	}
	if maxDepth >= 0 {
		w.maxDepth = maxDepth
		w.maxDepthSet = true
	}
	return w, nil
}

// Walk performs the bounded BFS described in spec.md §4.7 and returns the
// resulting forest of AuditNodes, one per distinct root identity key.
func (w *Walker) Walk(ctx context.Context, roots []ActionRef) []AuditNode {
	visited := make(map[string]struct{})
	sem := semaphore.NewWeighted(int64(w.maxConcurrency))

	frontier := make([]frontierEntry, 0, len(roots))
	for _, r := range roots {
		frontier = append(frontier, frontierEntry{action: r, depth: 0, parent: ""})
	}

	allNodes := make(map[string]processedNode)
	var rootKeys []string
	childrenOrder := make(map[string][]string)

	for len(frontier) > 0 {
		current := frontier
		frontier = nil

		// Drop already-visited entries, marking survivors visited before
		// dispatch so sibling duplicates in the same frontier collapse.
		var toProcess []frontierEntry
		for _, entry := range current {
			key := entry.action.IdentityKey()
			if _, ok := visited[key]; ok {
				continue
			}
			visited[key] = struct{}{}
			toProcess = append(toProcess, entry)
		}

		if len(toProcess) == 0 {
			continue
		}

		for _, entry := range toProcess {
			key := entry.action.IdentityKey()
			if entry.depth == 0 {
				rootKeys = append(rootKeys, key)
			}
			if entry.parent != "" {
				childrenOrder[entry.parent] = append(childrenOrder[entry.parent], key)
			}
		}

		results := make([]processedNode, len(toProcess))
		var wg sync.WaitGroup
		for i, entry := range toProcess {
			if err := sem.Acquire(ctx, 1); err != nil {
				// Context cancelled; already-retired nodes remain in the tree.
				break
			}
			wg.Add(1)
			go func(i int, entry frontierEntry) {
				defer wg.Done()
				defer sem.Release(1)

				actx := AuditContext{
					Action: entry.action,
					Depth:  entry.depth,
					Parent: entry.parent,
					Index:  i,
				}
				w.pipeline.RunOne(ctx, &actx)

				if w.logger != nil {
					w.logger.Debug("node processed",
						"action", actx.Action.Raw,
						"depth", actx.Depth,
						"children", len(actx.Children),
					)
				}

				results[i] = processedNode{key: entry.action.IdentityKey(), ctx: actx}
			}(i, entry)
		}
		wg.Wait()

		for _, processed := range results {
			if processed.key == "" {
				continue // slot never ran (context cancelled mid-dispatch)
			}
			depth := processed.ctx.Depth
			children := processed.ctx.Children
			nodeKey := processed.key

			allNodes[nodeKey] = processed

			shouldExpand := !w.maxDepthSet || depth < w.maxDepth
			if !shouldExpand {
				continue
			}
			for _, child := range children {
				frontier = append(frontier, frontierEntry{
					action: child,
					depth:  depth + 1,
					parent: nodeKey,
				})
			}
		}
	}

	return buildTree(allNodes, rootKeys, childrenOrder)
}

// buildTree recursively assembles AuditNodes from the flat processed-node
// map, preserving discovery order. Per spec.md §5's ordering guarantees,
// sibling order within a frontier is undefined; callers that need stable
// output sort siblings by identity key when rendering, not here.
func buildTree(nodes map[string]processedNode, keys []string, childrenOrder map[string][]string) []AuditNode {
	result := make([]AuditNode, 0, len(keys))
	for _, key := range keys {
		processed, ok := nodes[key]
		if !ok {
			continue // dropped by cycle-guard or depth-cut: no child node
		}
		childKeys := childrenOrder[key]
		children := buildTree(nodes, childKeys, childrenOrder)

		result = append(result, AuditNode{
			Entry:    NewActionEntry(&processed.ctx),
			Children: children,
		})
	}
	return result
}
