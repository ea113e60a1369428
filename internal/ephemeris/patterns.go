package ephemeris

import "sort"

// AspectCluster is a connected group of bodies linked by aspects.
type AspectCluster struct {
	Bodies  []string `json:"bodies"`
	Aspects int      `json:"aspects"`
}

// AspectHub is a body taking part in many aspects.
type AspectHub struct {
	Body   string `json:"body"`
	Degree int    `json:"degree"`
	Sign   string `json:"sign"`
}

// Configuration is a named multi-body figure such as a grand trine.
type Configuration struct {
	Name   string   `json:"name"`
	Bodies []string `json:"bodies"`
	// Apex is the focal body of a T-square; empty for symmetric figures.
	Apex string `json:"apex,omitempty"`
}

// KindCount is the number of aspects of one kind.
type KindCount struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// AspectPatterns summarizes the aspect graph of a chart: bodies are nodes and
// aspects are edges.
type AspectPatterns struct {
	TotalAspects   int             `json:"total_aspects"`
	Clusters       []AspectCluster `json:"clusters"`
	Unaspected     []string        `json:"unaspected"`
	Hubs           []AspectHub     `json:"hubs"`
	KindCounts     []KindCount     `json:"kind_counts"`
	Configurations []Configuration `json:"configurations"`
}

// AnalyzePatterns finds clusters, unaspected bodies, hubs (more than hubThreshold
// aspects), per-kind counts, grand trines and T-squares.
func AnalyzePatterns(chart *Chart, kinds []AspectKind, hubThreshold int) *AspectPatterns {
	n := len(chart.Positions)
	index := make(map[string]int, n)
	for i, p := range chart.Positions {
		index[p.Body] = i
	}

	uf := newUnionFind(n)
	degree := make([]int, n)
	linked := make(map[[2]int]string)
	counts := make(map[string]int)
	for _, a := range chart.Aspects {
		i, ok1 := index[a.Body1]
		j, ok2 := index[a.Body2]
		if !ok1 || !ok2 {
			continue
		}
		uf.union(i, j)
		degree[i]++
		degree[j]++
		linked[pairKey(i, j)] = a.Kind
		counts[a.Kind]++
	}

	perRoot := make(map[int]int)
	for _, a := range chart.Aspects {
		if i, ok := index[a.Body1]; ok {
			if _, ok := index[a.Body2]; ok {
				perRoot[uf.find(i)]++
			}
		}
	}

	report := &AspectPatterns{TotalAspects: len(chart.Aspects)}

	for _, g := range uf.groups() {
		if len(g) < 2 {
			continue
		}
		cluster := AspectCluster{Aspects: perRoot[uf.find(g[0])]}
		for _, i := range g {
			cluster.Bodies = append(cluster.Bodies, chart.Positions[i].Body)
		}
		report.Clusters = append(report.Clusters, cluster)
	}
	sort.SliceStable(report.Clusters, func(i, j int) bool {
		return len(report.Clusters[i].Bodies) > len(report.Clusters[j].Bodies)
	})

	for i, p := range chart.Positions {
		if degree[i] == 0 {
			report.Unaspected = append(report.Unaspected, p.Body)
		}
		if degree[i] > hubThreshold {
			report.Hubs = append(report.Hubs, AspectHub{Body: p.Body, Degree: degree[i], Sign: p.Sign.String()})
		}
	}
	sort.SliceStable(report.Hubs, func(i, j int) bool { return report.Hubs[i].Degree > report.Hubs[j].Degree })

	for _, k := range kinds {
		report.KindCounts = append(report.KindCounts, KindCount{Kind: k.Name, Count: counts[k.Name]})
	}

	report.Configurations = findConfigurations(chart, linked)
	return report
}

func pairKey(i, j int) [2]int {
	if i > j {
		i, j = j, i
	}
	return [2]int{i, j}
}

// findConfigurations looks for grand trines (three mutual trines) and T-squares (an
// opposition whose ends both square a third body, the apex).
func findConfigurations(chart *Chart, linked map[[2]int]string) []Configuration {
	n := len(chart.Positions)
	has := func(i, j int, kind string) bool {
		return linked[pairKey(i, j)] == kind
	}
	name := func(i int) string { return chart.Positions[i].Body }

	var configs []Configuration
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				if has(i, j, "trine") && has(j, k, "trine") && has(i, k, "trine") {
					configs = append(configs, Configuration{Name: "grand trine", Bodies: []string{name(i), name(j), name(k)}})
				}
			}
			if !has(i, j, "opposition") {
				continue
			}
			for apex := 0; apex < n; apex++ {
				if apex == i || apex == j {
					continue
				}
				if has(i, apex, "square") && has(j, apex, "square") {
					configs = append(configs, Configuration{
						Name:   "T-square",
						Bodies: []string{name(i), name(j), name(apex)},
						Apex:   name(apex),
					})
				}
			}
		}
	}
	return configs
}
