package ephemeris

// unionFind groups body indices into aspect clusters, with path compression and
// union by rank.
type unionFind struct {
	parent []int
	rank   []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
		size:   make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	if uf.parent[i] != i {
		uf.parent[i] = uf.find(uf.parent[i])
	}
	return uf.parent[i]
}

// union merges the sets holding a and b. Returns true if they were separate.
func (uf *unionFind) union(a, b int) bool {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return false
	}
	switch {
	case uf.rank[ra] < uf.rank[rb]:
		ra, rb = rb, ra
	case uf.rank[ra] == uf.rank[rb]:
		uf.rank[ra]++
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
	return true
}

// groups returns each set's members in ascending index order, ordered by their
// smallest member.
func (uf *unionFind) groups() [][]int {
	byRoot := make(map[int]int)
	var result [][]int
	for i := range uf.parent {
		root := uf.find(i)
		g, ok := byRoot[root]
		if !ok {
			g = len(result)
			byRoot[root] = g
			result = append(result, nil)
		}
		result[g] = append(result[g], i)
	}
	return result
}
