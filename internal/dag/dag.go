// Package dag orders named computations by their inputs. Derived points
// may take other derived points as inputs, so the catalogue builds a graph
// of formula names and evaluates them in topological order, rejecting
// cycles at load time.
package dag

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle is returned when the graph contains a dependency cycle.
var ErrCycle = errors.New("cycle detected")

// ErrNodeNotFound is returned when an operation references a non-existent node.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when adding a node that already exists.
var ErrDuplicateNode = errors.New("duplicate node")

// ErrSelfEdge is returned when an edge would create a self-loop.
var ErrSelfEdge = errors.New("self-referencing edge")

// DAG is a directed acyclic graph of named nodes. Edges point from a node
// to its dependencies: if A takes B as input, there is an edge from A to B.
// Nodes remember their insertion order, which breaks ties in
// TopologicalSort so results follow declaration order.
type DAG struct {
	order map[string]int
	// adjacency maps nodeID → set of dependency IDs (forward edges).
	adjacency map[string]map[string]bool
	// reverse maps nodeID → set of dependent IDs (backward edges).
	reverse map[string]map[string]bool
}

// New creates an empty DAG.
func New() *DAG {
	return &DAG{
		order:     make(map[string]int),
		adjacency: make(map[string]map[string]bool),
		reverse:   make(map[string]map[string]bool),
	}
}

// AddNode adds a node. Returns ErrDuplicateNode if it already exists.
func (d *DAG) AddNode(id string) error {
	if _, exists := d.order[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	d.order[id] = len(d.order)
	d.adjacency[id] = make(map[string]bool)
	d.reverse[id] = make(map[string]bool)
	return nil
}

// Has reports whether id is a node of the graph.
func (d *DAG) Has(id string) bool {
	_, ok := d.order[id]
	return ok
}

// AddEdge records that from depends on to. Both nodes must already exist.
// Returns an error if either node is missing, the edge would be a
// self-loop, or the edge would introduce a cycle.
func (d *DAG) AddEdge(from, to string) error {
	if from == to {
		return fmt.Errorf("%w: %s", ErrSelfEdge, from)
	}
	if !d.Has(from) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	if !d.Has(to) {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	if d.adjacency[from][to] {
		return nil
	}
	// A path to→...→from plus from→to would close a cycle.
	if d.hasPath(to, from) {
		return fmt.Errorf("%w: edge %s → %s would create a cycle", ErrCycle, from, to)
	}
	d.adjacency[from][to] = true
	d.reverse[to][from] = true
	return nil
}

// Len returns the number of nodes in the DAG.
func (d *DAG) Len() int {
	return len(d.order)
}

// TopologicalSort returns node IDs with dependencies before dependents.
// Among nodes that are ready at the same time, earlier-inserted nodes come
// first. Returns ErrCycle if the graph contains a cycle.
func (d *DAG) TopologicalSort() ([]string, error) {
	inDegree := make(map[string]int, len(d.order))
	var queue []string
	for id := range d.order {
		inDegree[id] = len(d.adjacency[id])
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	queue = d.insertionSorted(queue)

	sorted := make([]string, 0, len(d.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		var freed []string
		for dependent := range d.reverse[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				freed = append(freed, dependent)
			}
		}
		if len(freed) > 0 {
			queue = d.insertionSorted(append(queue, freed...))
		}
	}

	if len(sorted) != len(d.order) {
		return nil, fmt.Errorf("%w: not all nodes could be ordered (%d of %d)",
			ErrCycle, len(sorted), len(d.order))
	}
	return sorted, nil
}

// Ancestors returns every node id transitively depends on, sorted
// alphabetically. Returns nil if id does not exist.
func (d *DAG) Ancestors(id string) []string {
	if !d.Has(id) {
		return nil
	}
	visited := make(map[string]bool)
	d.collectAncestors(id, visited)
	result := make([]string, 0, len(visited))
	for v := range visited {
		result = append(result, v)
	}
	sort.Strings(result)
	return result
}

// hasPath reports whether there is a directed path from src to dst
// through the dependency graph (forward edges).
func (d *DAG) hasPath(src, dst string) bool {
	if src == dst {
		return false
	}
	visited := make(map[string]bool)
	queue := []string{src}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for dep := range d.adjacency[cur] {
			if dep == dst {
				return true
			}
			if !visited[dep] {
				visited[dep] = true
				queue = append(queue, dep)
			}
		}
	}
	return false
}

func (d *DAG) collectAncestors(id string, visited map[string]bool) {
	for dep := range d.adjacency[id] {
		if !visited[dep] {
			visited[dep] = true
			d.collectAncestors(dep, visited)
		}
	}
}

// insertionSorted returns ids sorted by insertion order.
func (d *DAG) insertionSorted(ids []string) []string {
	sort.Slice(ids, func(i, j int) bool {
		return d.order[ids[i]] < d.order[ids[j]]
	})
	return ids
}
