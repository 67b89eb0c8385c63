package clustering

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"

	"github.com/justestif/moodmate/internal/dataset"
	"github.com/justestif/moodmate/internal/emotion"
	"github.com/justestif/moodmate/internal/recommend"
)

// ErrTooFewTracks is returned when there are fewer sampled tracks than clusters.
var ErrTooFewTracks = errors.New("too few tracks to cluster")

// CrossCheckConfig holds k-means parameters.
type CrossCheckConfig struct {
	NumClusters int // Number of clusters (default: one per band)
	MaxPoints   int // Tracks are strided down to at most this many (default: 5000)
}

// DefaultCrossCheckConfig returns the recommended default configuration.
func DefaultCrossCheckConfig() CrossCheckConfig {
	return CrossCheckConfig{
		NumClusters: len(recommend.BandLabels()),
		MaxPoints:   5000,
	}
}

// ClusterSummary describes one k-means cluster.
type ClusterSummary struct {
	Centroid      Point                 `json:"centroid"`
	Size          int                   `json:"size"`
	Labels        map[emotion.Label]int `json:"labels"`
	Majority      emotion.Label         `json:"majority"`
	MajorityShare float64               `json:"majority_share"`
}

// CrossCheck is the result of clustering the tracks without regard to bands.
type CrossCheck struct {
	Sampled  int              `json:"sampled"`
	Clusters []ClusterSummary `json:"clusters"`
	// Agreement is the fraction of sampled tracks whose band label matches
	// their cluster's majority label.
	Agreement float64 `json:"agreement"`
}

// CrossCheckBands runs k-means over standardized (emotional, pleasant)
// coordinates and reports how well the clusters line up with the bands.
// Clusters are ordered by centroid, fewest tags first.
func CrossCheckBands(ds *dataset.Dataset, table recommend.Table, cfg CrossCheckConfig) (*CrossCheck, error) {
	defaults := DefaultCrossCheckConfig()
	if cfg.NumClusters <= 0 {
		cfg.NumClusters = defaults.NumClusters
	}
	if cfg.MaxPoints <= 0 {
		cfg.MaxPoints = defaults.MaxPoints
	}

	observations := sampleObservations(ds, table, cfg.MaxPoints)
	if len(observations) < cfg.NumClusters {
		return nil, fmt.Errorf("%w: %d tracks, %d clusters", ErrTooFewTracks, len(observations), cfg.NumClusters)
	}
	standardize(observations)

	var obs clusters.Observations
	for _, o := range observations {
		obs = append(obs, o)
	}

	km := kmeans.New()
	result, err := km.Partition(obs, cfg.NumClusters)
	if err != nil {
		return nil, fmt.Errorf("running k-means: %w", err)
	}

	check := &CrossCheck{Sampled: len(observations)}
	agreeing := 0
	for _, cluster := range result {
		if len(cluster.Observations) == 0 {
			continue
		}
		summary := summarizeCluster(cluster)
		agreeing += summary.Labels[summary.Majority]
		check.Clusters = append(check.Clusters, summary)
	}
	check.Agreement = float64(agreeing) / float64(len(observations))

	slices.SortFunc(check.Clusters, func(a, b ClusterSummary) int {
		if c := cmp.Compare(a.Centroid.Emotional, b.Centroid.Emotional); c != 0 {
			return c
		}
		return cmp.Compare(a.Centroid.Pleasant, b.Centroid.Pleasant)
	})

	return check, nil
}

// sampleObservations takes every stride-th track so at most maxPoints remain.
func sampleObservations(ds *dataset.Dataset, table recommend.Table, maxPoints int) []trackObservation {
	n := ds.Len()
	stride := max(1, (n+maxPoints-1)/maxPoints)

	out := make([]trackObservation, 0, n/stride+1)
	for i := 0; i < n; i += stride {
		raw := pointOf(ds.At(i))
		out = append(out, trackObservation{
			index: i,
			label: labelAt(table, i),
			raw:   raw,
		})
	}
	return out
}

// standardize sets each observation's coordinates to z-scores so both axes
// weigh equally. A constant axis maps to zero.
func standardize(observations []trackObservation) {
	n := float64(len(observations))
	var sumE, sumP float64
	for _, o := range observations {
		sumE += o.raw.Emotional
		sumP += o.raw.Pleasant
	}
	meanE, meanP := sumE/n, sumP/n

	var varE, varP float64
	for _, o := range observations {
		varE += (o.raw.Emotional - meanE) * (o.raw.Emotional - meanE)
		varP += (o.raw.Pleasant - meanP) * (o.raw.Pleasant - meanP)
	}
	sdE, sdP := math.Sqrt(varE/n), math.Sqrt(varP/n)

	z := func(v, mean, sd float64) float64 {
		if sd == 0 {
			return 0
		}
		return (v - mean) / sd
	}
	for i := range observations {
		o := &observations[i]
		o.coords = clusters.Coordinates{
			z(o.raw.Emotional, meanE, sdE),
			z(o.raw.Pleasant, meanP, sdP),
		}
	}
}

func summarizeCluster(cluster clusters.Cluster) ClusterSummary {
	summary := ClusterSummary{Labels: make(map[emotion.Label]int)}

	var sumE, sumP float64
	for _, obs := range cluster.Observations {
		to, ok := obs.(trackObservation)
		if !ok {
			continue
		}
		summary.Size++
		summary.Labels[to.label]++
		sumE += to.raw.Emotional
		sumP += to.raw.Pleasant
	}
	if summary.Size == 0 {
		return summary
	}
	summary.Centroid = Point{
		Emotional: sumE / float64(summary.Size),
		Pleasant:  sumP / float64(summary.Size),
	}

	// Ties go to the earlier band so the result is stable.
	for _, label := range recommend.BandLabels() {
		if summary.Labels[label] > summary.Labels[summary.Majority] {
			summary.Majority = label
		}
	}
	summary.MajorityShare = float64(summary.Labels[summary.Majority]) / float64(summary.Size)
	return summary
}
