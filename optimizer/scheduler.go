package optimizer

import (
	"fmt"
	"strings"

	"github.com/gofhir/gofsh"
)

// CycleError reports passes whose ordering constraints form a cycle.
// Passes lists the passes on a cycle. Blocked lists the passes that only
// wait on one.
type CycleError struct {
	Passes  []string
	Blocked []string
}

// Error returns the error string.
func (e *CycleError) Error() string {
	msg := "optimizer pass ordering has a cycle involving: " + strings.Join(e.Passes, ", ")
	if len(e.Blocked) > 0 {
		msg += " (blocked: " + strings.Join(e.Blocked, ", ") + ")"
	}
	return msg
}

// DuplicateError reports two passes registered under one name.
type DuplicateError struct {
	Name string
}

// Error returns the error string.
func (e *DuplicateError) Error() string {
	return fmt.Sprintf("optimizer pass %q registered more than once", e.Name)
}

// Order returns the enabled passes sorted so that every RunBefore and
// RunAfter constraint holds. Disabled passes are removed together with
// their edges, and edges naming passes that are not registered are
// ignored. Among passes that are ready at the same time, registration
// order wins.
func Order(plugins []Plugin, opts *gofsh.Options) ([]Plugin, error) {
	if opts == nil {
		opts = gofsh.DefaultOptions()
	}

	var nodes []Plugin
	index := make(map[string]int)
	for _, p := range plugins {
		if e, ok := p.(Enabler); ok && !e.Enabled(opts) {
			continue
		}
		if _, dup := index[p.Name()]; dup {
			return nil, &DuplicateError{Name: p.Name()}
		}
		index[p.Name()] = len(nodes)
		nodes = append(nodes, p)
	}

	successors := make([]map[int]bool, len(nodes))
	for i := range successors {
		successors[i] = make(map[int]bool)
	}
	indegree := make([]int, len(nodes))
	addEdge := func(from, to int) {
		if from == to || successors[from][to] {
			return
		}
		successors[from][to] = true
		indegree[to]++
	}
	for i, p := range nodes {
		for _, name := range p.RunBefore() {
			if j, ok := index[name]; ok {
				addEdge(i, j)
			}
		}
		for _, name := range p.RunAfter() {
			if j, ok := index[name]; ok {
				addEdge(j, i)
			}
		}
	}

	ordered := make([]Plugin, 0, len(nodes))
	done := make([]bool, len(nodes))
	for len(ordered) < len(nodes) {
		next := -1
		for i := range nodes {
			if !done[i] && indegree[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		done[next] = true
		ordered = append(ordered, nodes[next])
		for j := range successors[next] {
			indegree[j]--
		}
	}

	if len(ordered) < len(nodes) {
		err := &CycleError{}
		for i, p := range nodes {
			switch {
			case done[i]:
			case reaches(successors, i, i):
				err.Passes = append(err.Passes, p.Name())
			default:
				err.Blocked = append(err.Blocked, p.Name())
			}
		}
		return nil, err
	}
	return ordered, nil
}

// reaches reports whether to is reachable from the successors of from.
func reaches(successors []map[int]bool, from, to int) bool {
	seen := make([]bool, len(successors))
	stack := []int{from}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range successors[n] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}
