// Package graph orders the partitions of a design by their net dependencies.
package graph

import (
	"github.com/pkg/errors"
)

var ErrCycle = errors.New("cycle")

// Graph is a directed graph over nodes 0..n-1. An edge u -> v means v reads
// a net that u drives.
type Graph struct {
	adj [][]int
}

func NewGraph(n int) *Graph {
	return &Graph{make([][]int, n)}
}

func (g *Graph) Len() int { return len(g.adj) }

func (g *Graph) AddEdge(u, v int) {
	g.adj[u] = append(g.adj[u], v)
}

// TopoOrder returns the nodes so that every edge points forward. On a cycle
// it returns an error wrapping ErrCycle and the nodes on the cycle, in edge
// order.
func (g *Graph) TopoOrder() ([]int, []int, error) {
	const (
		white = iota
		grey
		black
	)
	n := len(g.adj)
	color := make([]int, n)
	parent := make([]int, n)
	order := make([]int, 0, n)
	var cycle []int

	var dfs func(int) bool
	dfs = func(v int) bool {
		color[v] = grey
		for _, w := range g.adj[v] {
			switch color[w] {
			case grey:
				cycle = []int{w}
				for u := v; u != w; u = parent[u] {
					cycle = append(cycle, u)
				}
				for i, j := 1, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return false
			case white:
				parent[w] = v
				if !dfs(w) {
					return false
				}
			}
		}
		color[v] = black
		order = append(order, v)
		return true
	}

	for i := 0; i < n; i++ {
		if color[i] == white && !dfs(i) {
			return nil, cycle, errors.Wrapf(ErrCycle, "through nodes %v", cycle)
		}
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order, nil, nil
}

// Components groups the nodes that are connected when edge direction is
// ignored. Groups are numbered from 1 in order of their lowest node.
func (g *Graph) Components() (int, map[int][]int) {
	n := len(g.adj)
	undirected := make([][]int, n)
	for u, vs := range g.adj {
		for _, v := range vs {
			undirected[u] = append(undirected[u], v)
			undirected[v] = append(undirected[v], u)
		}
	}
	visited := make([]bool, n)
	componentMap := make(map[int][]int)

	var dfs func(int, int)
	dfs = func(v, component int) {
		visited[v] = true
		componentMap[component] = append(componentMap[component], v)
		for _, w := range undirected[v] {
			if !visited[w] {
				dfs(w, component)
			}
		}
	}

	count := 0
	for i := 0; i < n; i++ {
		if !visited[i] {
			count++
			dfs(i, count)
		}
	}
	return count, componentMap
}
