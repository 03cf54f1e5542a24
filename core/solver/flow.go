package solver

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// minCostMatch computes a minimum-cost maximum bipartite matching on the
// given cost matrix (rows = vehicles, columns = virtual slots, +Inf marks
// an infeasible pair). It runs successive shortest augmenting paths on the
// flow network source -> row -> column -> sink with unit capacities, so the
// intermediate flow is cost-optimal at every cardinality and the final one
// is a min-cost maximum matching. Returns, per row, the matched column or
// -1.
func minCostMatch(costs *mat.Dense) []int {
	n, m := costs.Dims()

	// Node numbering: 0 = source, 1..n rows, n+1..n+m columns, n+m+1 sink.
	nodes := n + m + 2
	source, sink := 0, n+m+1

	type edge struct {
		to, rev int
		cap     int
		cost    float64
	}
	graph := make([][]edge, nodes)
	addEdge := func(u, v int, cap int, cost float64) {
		graph[u] = append(graph[u], edge{to: v, rev: len(graph[v]), cap: cap, cost: cost})
		graph[v] = append(graph[v], edge{to: u, rev: len(graph[u]) - 1, cap: 0, cost: -cost})
	}

	for i := 0; i < n; i++ {
		addEdge(source, 1+i, 1, 0)
	}
	for j := 0; j < m; j++ {
		addEdge(1+n+j, sink, 1, 0)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			c := costs.At(i, j)
			if math.IsInf(c, 1) {
				continue
			}
			addEdge(1+i, 1+n+j, 1, c)
		}
	}

	dist := make([]float64, nodes)
	inQueue := make([]bool, nodes)
	prevNode := make([]int, nodes)
	prevEdge := make([]int, nodes)

	// Augment one unit at a time along the cheapest path. SPFA handles the
	// negative residual arcs that appear after augmentation.
	for {
		for i := range dist {
			dist[i] = math.Inf(1)
			prevNode[i] = -1
		}
		dist[source] = 0
		queue := []int{source}
		inQueue[source] = true
		for len(queue) > 0 {
			u := queue[0]
			queue = queue[1:]
			inQueue[u] = false
			for ei, e := range graph[u] {
				if e.cap <= 0 {
					continue
				}
				nd := dist[u] + e.cost
				if nd < dist[e.to]-1e-12 {
					dist[e.to] = nd
					prevNode[e.to] = u
					prevEdge[e.to] = ei
					if !inQueue[e.to] {
						queue = append(queue, e.to)
						inQueue[e.to] = true
					}
				}
			}
		}
		if math.IsInf(dist[sink], 1) {
			break
		}
		for v := sink; v != source; v = prevNode[v] {
			e := &graph[prevNode[v]][prevEdge[v]]
			e.cap--
			graph[v][e.rev].cap++
		}
	}

	match := make([]int, n)
	for i := 0; i < n; i++ {
		match[i] = -1
		for _, e := range graph[1+i] {
			// A saturated forward edge to a column node is a match.
			if e.to > n && e.to < sink && e.cap == 0 && e.cost >= 0 {
				match[i] = e.to - n - 1
				break
			}
		}
	}
	return match
}
