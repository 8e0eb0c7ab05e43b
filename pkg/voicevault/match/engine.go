package match

import (
	"context"
	"math"
	"sort"

	"github.com/himanishpuri/VoiceVault/pkg/voicevault/fingerprint"
)

// Candidate is one (display name, absolute path) pair a query is compared
// against.
type Candidate struct {
	Name string
	Path string
}

// Result is a single ranked comparison.
type Result struct {
	Name     string
	Path     string
	Distance float64
}

// Outcome is the tagged result batch of one Rank call. MetThreshold reports
// whether Results passed the distance threshold or are best-effort fallback;
// Compared counts how many candidate comparisons produced a distance, so an
// empty Results with Compared==0 means no comparisons were possible at all.
type Outcome struct {
	Results      []Result
	MetThreshold bool
	Compared     int
}

// ExtractFunc produces a fingerprint for path, or reports absent.
type ExtractFunc func(ctx context.Context, path string) (fingerprint.Fingerprint, bool)

// Engine ranks candidates by acoustic distance to a query. The extraction
// function is injected so the ranking policy stays independent of the audio
// pipeline.
type Engine struct {
	extract ExtractFunc
}

func NewEngine(extract ExtractFunc) *Engine {
	return &Engine{extract: extract}
}

// Compare extracts fingerprints for both paths and returns their Euclidean
// distance. Absent propagates: if either side fails to extract, ok is false.
func (e *Engine) Compare(ctx context.Context, pathA, pathB string) (float64, bool) {
	fpA, ok := e.extract(ctx, pathA)
	if !ok {
		return 0, false
	}
	fpB, ok := e.extract(ctx, pathB)
	if !ok {
		return 0, false
	}
	return Distance(fpA, fpB), true
}

// Distance is the L2 norm of the difference of two equal-length vectors.
func Distance(a, b fingerprint.Fingerprint) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Rank compares the query file against every candidate and returns up to
// topK results sorted ascending by distance, ties keeping candidate order.
// Candidates whose extraction fails are dropped silently. If no candidate
// passes the threshold the best topK of the full list are returned with
// MetThreshold=false so the caller always sees its best available guesses.
func (e *Engine) Rank(ctx context.Context, queryPath string, candidates []Candidate, threshold float64, topK int) Outcome {
	if topK < 1 {
		topK = 1
	}

	queryFP, ok := e.extract(ctx, queryPath)
	if !ok {
		return Outcome{}
	}

	results := make([]Result, 0, len(candidates))
	for _, cand := range candidates {
		candFP, ok := e.extract(ctx, cand.Path)
		if !ok {
			continue
		}
		results = append(results, Result{
			Name:     cand.Name,
			Path:     cand.Path,
			Distance: Distance(queryFP, candFP),
		})
	}

	compared := len(results)
	if compared == 0 {
		return Outcome{}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Distance < results[j].Distance
	})

	accepted := results
	for i, r := range results {
		if r.Distance > threshold {
			accepted = results[:i]
			break
		}
	}

	met := len(accepted) > 0
	shown := accepted
	if !met {
		shown = results
	}
	if len(shown) > topK {
		shown = shown[:topK]
	}

	return Outcome{Results: shown, MetThreshold: met, Compared: compared}
}
