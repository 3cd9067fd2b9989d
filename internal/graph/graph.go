// Package graph keeps the objective prerequisite relation acyclic and
// linearises it.
//
// Edges point from a dependent objective to each of its prerequisites.
// Every walk visits nodes in the order the objectives were loaded (creation
// time, then id) and each node's prerequisites in their stored order, so the
// cycle reported for a given snapshot is always the same one.
package graph

import (
	"prolly/internal/apperr"
	"prolly/internal/models"
)

// Reason classifies a rejected prerequisite set.
type Reason string

const (
	ReasonSelf       Reason = "self-prerequisite"
	ReasonCrossScope Reason = "cross-scope"
	ReasonCycle      Reason = "cycle"
)

const (
	messageSelf       = "An objective cannot be its own prerequisite"
	messageCrossScope = "Prerequisites must belong to the same curriculum"
	messageCycle      = "Adding these prerequisites would create a circular dependency"
)

// NewObjective is the id to validate with before an objective exists.
const NewObjective = ""

// Result is the outcome of validating a proposed prerequisite set.
type Result struct {
	Valid   bool   `json:"valid" yaml:"valid"`
	Reason  Reason `json:"reason,omitempty" yaml:"reason,omitempty"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
	// CycleNodes starts and ends with the repeated node for cycles, and
	// holds just the objective for self-prerequisites.
	CycleNodes []string `json:"cycle_nodes,omitempty" yaml:"cycle_nodes,omitempty"`
}

// Err converts a rejected result into a dag_cycle error. It returns nil for
// valid results.
func (r Result) Err(op string) error {
	if r.Valid {
		return nil
	}
	return apperr.Cycle(op, r.Message, r.CycleNodes)
}

// Validate checks whether giving objectiveID the proposed prerequisites
// keeps the graph over live acyclic. live must hold the live objectives of
// one curriculum in load order. objectiveID may be NewObjective.
func Validate(objectiveID string, proposed []string, live []models.Objective) Result {
	for _, id := range proposed {
		if id == objectiveID && objectiveID != NewObjective {
			return Result{Reason: ReasonSelf, Message: messageSelf, CycleNodes: []string{objectiveID}}
		}
	}

	order := make([]string, 0, len(live))
	adjacency := make(map[string][]string, len(live))
	for _, o := range live {
		order = append(order, o.ID)
		adjacency[o.ID] = o.Prerequisites
	}
	if _, ok := adjacency[objectiveID]; ok {
		adjacency[objectiveID] = proposed
	}

	for _, id := range proposed {
		if _, ok := adjacency[id]; !ok {
			return Result{Reason: ReasonCrossScope, Message: messageCrossScope}
		}
	}

	if cycle := findCycle(order, adjacency); cycle != nil {
		return Result{Reason: ReasonCycle, Message: messageCycle, CycleNodes: cycle}
	}
	return Result{Valid: true}
}

type frame struct {
	node string
	next int
}

// findCycle runs a depth-first search from every node in order with an
// explicit stack. It returns the first cycle found as the path from the
// repeated node back to itself, or nil.
//
// Nodes are marked visited once for the whole search: a node fully explored
// from an earlier start reaches no cycle, so exploring it again from a later
// start cannot change which cycle is found first.
func findCycle(order []string, adjacency map[string][]string) []string {
	visited := make(map[string]bool, len(order))
	onPath := make(map[string]int, len(order))
	var path []string

	for _, start := range order {
		if visited[start] {
			continue
		}
		visited[start] = true
		onPath[start] = 0
		path = append(path[:0], start)
		stack := []frame{{node: start}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := adjacency[top.node]
			if top.next == len(edges) {
				delete(onPath, top.node)
				path = path[:len(path)-1]
				stack = stack[:len(stack)-1]
				continue
			}

			next := edges[top.next]
			top.next++
			if idx, ok := onPath[next]; ok {
				cycle := make([]string, 0, len(path)-idx+1)
				cycle = append(cycle, path[idx:]...)
				return append(cycle, next)
			}
			if visited[next] {
				continue
			}
			visited[next] = true
			onPath[next] = len(path)
			path = append(path, next)
			stack = append(stack, frame{node: next})
		}
	}
	return nil
}

// TopologicalOrder returns objectives so that every prerequisite precedes
// its dependents, using Kahn's algorithm with a FIFO queue seeded in load
// order. A graph that cannot be fully consumed is an internal invariant
// violation, since every write is validated acyclic.
func TopologicalOrder(objectives []models.Objective) ([]models.Objective, error) {
	byID := make(map[string]int, len(objectives))
	inDegree := make(map[string]int, len(objectives))
	dependents := make(map[string][]string, len(objectives))
	for i, o := range objectives {
		byID[o.ID] = i
		inDegree[o.ID] = len(o.Prerequisites)
	}
	for _, o := range objectives {
		for _, prereq := range o.Prerequisites {
			dependents[prereq] = append(dependents[prereq], o.ID)
		}
	}

	queue := make([]string, 0, len(objectives))
	for _, o := range objectives {
		if inDegree[o.ID] == 0 {
			queue = append(queue, o.ID)
		}
	}

	result := make([]models.Objective, 0, len(objectives))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		result = append(result, objectives[byID[id]])
		for _, dependent := range dependents[id] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(result) != len(objectives) {
		return nil, apperr.Internal("graph.topological_order", "ordered %d of %d objectives; prerequisite graph is inconsistent", len(result), len(objectives))
	}
	return result, nil
}
