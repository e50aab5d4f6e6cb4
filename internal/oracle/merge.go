package oracle

import (
	"context"
	"sort"

	"github.com/kailas-cloud/topicdex/internal/domain/cluster"
)

func clusterSizes(labels []int) map[int]int {
	sizes := make(map[int]int)
	for _, l := range labels {
		if l != cluster.Outlier {
			sizes[l]++
		}
	}
	return sizes
}

func sortedLabels(sizes map[int]int) []int {
	out := make([]int, 0, len(sizes))
	for l := range sizes {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// absorb relabels src as dst and folds its term counts into dst.
func absorb(labels []int, counts map[int]map[string]int, src, dst int) {
	for i, l := range labels {
		if l == src {
			labels[i] = dst
		}
	}
	bag := counts[dst]
	if bag == nil {
		bag = make(map[string]int)
		counts[dst] = bag
	}
	for term, c := range counts[src] {
		bag[term] += c
	}
	delete(counts, src)
}

// mergeSmallest folds the smallest cluster (ties: highest label) into its most
// similar cluster (ties: lowest label) until target clusters remain.
func mergeSmallest(ctx context.Context, labels []int, counts map[int]map[string]int, target int) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sizes := clusterSizes(labels)
		if len(sizes) <= target {
			return nil
		}
		ids := sortedLabels(sizes)

		src := ids[len(ids)-1]
		for i := len(ids) - 1; i >= 0; i-- {
			if sizes[ids[i]] < sizes[src] {
				src = ids[i]
			}
		}

		vectors := ctfidf(counts)
		dst, best := -1, -1.0
		for _, l := range ids {
			if l == src {
				continue
			}
			if sim := cosine(vectors[src], vectors[l]); sim > best {
				dst, best = l, sim
			}
		}
		absorb(labels, counts, src, dst)
	}
}

// autoMerge repeatedly merges the most similar pair of clusters while their
// similarity reaches threshold. The smaller cluster is folded into the larger.
func autoMerge(ctx context.Context, labels []int, counts map[int]map[string]int, threshold float64) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		sizes := clusterSizes(labels)
		if len(sizes) < 2 {
			return nil
		}
		ids := sortedLabels(sizes)
		vectors := ctfidf(counts)

		a, b, best := -1, -1, threshold
		for i := range ids {
			for j := i + 1; j < len(ids); j++ {
				sim := cosine(vectors[ids[i]], vectors[ids[j]])
				if sim >= best && (a < 0 || sim > best) {
					a, b, best = ids[i], ids[j], sim
				}
			}
		}
		if a < 0 {
			return nil
		}
		src, dst := b, a
		if sizes[a] < sizes[b] {
			src, dst = a, b
		}
		absorb(labels, counts, src, dst)
	}
}
