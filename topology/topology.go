// Package topology represents circuit topology graphs.
//
// A topology is an undirected graph over qubit sites. The circuit package
// requires it to be a tree with maximum degree 3, which bounds site tensor
// rank at 4.
package topology

import "fmt"

const maxDegree = 3

// Neighbor is one adjacency of a site.
type Neighbor struct {
	// Site is the opposite endpoint of the edge.
	Site int
	// Link is the edge id, unique per undirected edge.
	Link int
}

// Topology is a collection of sites and the links between them.
type Topology struct {
	neighbors [][]Neighbor
	numLinks  int
}

// New returns a topology over numBits sites and no links.
func New(numBits int) *Topology {
	if numBits <= 0 {
		panic(fmt.Sprintf("%d", numBits))
	}
	return &Topology{neighbors: make([][]Neighbor, numBits)}
}

// Chain returns the open chain 0-1-...-(n-1).
func Chain(n int) *Topology {
	t := New(n)
	for i := range n - 1 {
		t.GenerateLink(i, i+1)
	}
	return t
}

// GenerateLink adds an undirected edge between site1 and site2.
func (t *Topology) GenerateLink(site1, site2 int) {
	n := len(t.neighbors)
	if site1 < 0 || site1 >= n || site2 < 0 || site2 >= n || site1 == site2 {
		panic(fmt.Sprintf("%d %d", site1, site2))
	}
	if t.Adjacent(site1, site2) {
		panic(fmt.Sprintf("%d %d", site1, site2))
	}
	if len(t.neighbors[site1]) >= maxDegree || len(t.neighbors[site2]) >= maxDegree {
		panic(fmt.Sprintf("%d %d", site1, site2))
	}

	t.neighbors[site1] = append(t.neighbors[site1], Neighbor{Site: site2, Link: t.numLinks})
	t.neighbors[site2] = append(t.neighbors[site2], Neighbor{Site: site1, Link: t.numLinks})
	t.numLinks++
}

// NumberOfBits returns the number of sites.
func (t *Topology) NumberOfBits() int { return len(t.neighbors) }

// NumberOfLinks returns the number of edges.
func (t *Topology) NumberOfLinks() int { return t.numLinks }

// NeighborsOf returns the neighbors of site i in link creation order.
// The order is stable. The returned slice must not be modified.
func (t *Topology) NeighborsOf(i int) []Neighbor {
	if i < 0 || i >= len(t.neighbors) {
		panic(fmt.Sprintf("%d", i))
	}
	return t.neighbors[i]
}

// Adjacent reports whether an edge (i, j) exists.
func (t *Topology) Adjacent(i, j int) bool {
	for _, nb := range t.NeighborsOf(i) {
		if nb.Site == j {
			return true
		}
	}
	return false
}

// Link returns the edge id between adjacent sites i and j.
func (t *Topology) Link(i, j int) int {
	for _, nb := range t.NeighborsOf(i) {
		if nb.Site == j {
			return nb.Link
		}
	}
	panic(fmt.Sprintf("%d %d", i, j))
}

// Path returns the sites along a shortest path from `from` to `to`,
// inclusive of both. On a tree the path is unique.
func (t *Topology) Path(from, to int) []int {
	parent := t.bfs(from)
	if parent[to] < 0 && to != from {
		panic(fmt.Sprintf("%d %d", from, to))
	}

	path := []int{to}
	for v := to; v != from; v = parent[v] {
		path = append(path, parent[v])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// BFSOrder returns the sites reachable from site 0 in breadth-first order.
// Every site after the first neighbors an earlier one, which is the
// enumeration the overlap contraction relies on.
func (t *Topology) BFSOrder() []int {
	order := make([]int, 0, len(t.neighbors))
	visited := make([]bool, len(t.neighbors))
	queue := []int{0}
	visited[0] = true
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		order = append(order, v)
		for _, nb := range t.neighbors[v] {
			if !visited[nb.Site] {
				visited[nb.Site] = true
				queue = append(queue, nb.Site)
			}
		}
	}
	return order
}

func (t *Topology) bfs(from int) []int {
	parent := make([]int, len(t.neighbors))
	for i := range parent {
		parent[i] = -1
	}
	queue := []int{from}
	visited := make([]bool, len(t.neighbors))
	visited[from] = true
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for _, nb := range t.neighbors[v] {
			if !visited[nb.Site] {
				visited[nb.Site] = true
				parent[nb.Site] = v
				queue = append(queue, nb.Site)
			}
		}
	}
	return parent
}
