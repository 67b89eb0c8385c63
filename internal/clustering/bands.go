// Package clustering describes the emotion bands statistically and checks the
// fixed banding against an unsupervised k-means partition of the same tracks.
package clustering

import (
	"github.com/muesli/clusters"

	"github.com/justestif/moodmate/internal/dataset"
	"github.com/justestif/moodmate/internal/emotion"
	"github.com/justestif/moodmate/internal/recommend"
)

// Point is a position in (emotional, pleasant) space.
type Point struct {
	Emotional float64 `json:"emotional"`
	Pleasant  float64 `json:"pleasant"`
}

// BandSummary describes the tracks in one band.
type BandSummary struct {
	Label       emotion.Label  `json:"label"`
	Band        recommend.Band `json:"band"`
	Count       int            `json:"count"`
	Centroid    Point          `json:"centroid"`
	Min         Point          `json:"min"`
	Max         Point          `json:"max"`
	Description string         `json:"description"`
}

// trackObservation wraps a sorted track index to implement clusters.Observation.
type trackObservation struct {
	index  int
	label  emotion.Label
	raw    Point
	coords clusters.Coordinates
}

func (o trackObservation) Coordinates() clusters.Coordinates {
	return o.coords
}

func (o trackObservation) Distance(point clusters.Coordinates) float64 {
	return o.coords.Distance(point)
}

func pointOf(t dataset.Track) Point {
	return Point{Emotional: t.Emotional, Pleasant: t.Pleasant}
}

// SummarizeBands returns one summary per band-owning label, in sort order.
// Aliased labels are not repeated.
func SummarizeBands(ds *dataset.Dataset, table recommend.Table) []BandSummary {
	overall := mean(ds, recommend.Band{Start: 0, End: ds.Len()})

	var out []BandSummary
	for _, label := range recommend.BandLabels() {
		band, _ := table.Band(label)
		summary := BandSummary{
			Label: label,
			Band:  band,
			Count: band.Len(),
		}
		if band.Len() > 0 {
			summary.Centroid = mean(ds, band)
			summary.Min, summary.Max = bounds(ds, band)
			summary.Description = Describe(summary.Centroid, overall)
		}
		out = append(out, summary)
	}
	return out
}

// mean computes the centroid of a band in raw units.
func mean(ds *dataset.Dataset, band recommend.Band) Point {
	if band.Len() == 0 {
		return Point{}
	}

	cluster := clusters.Cluster{}
	for i := band.Start; i < band.End; i++ {
		p := pointOf(ds.At(i))
		cluster.Append(trackObservation{
			index:  i,
			raw:    p,
			coords: clusters.Coordinates{p.Emotional, p.Pleasant},
		})
	}
	cluster.Recenter()

	return Point{Emotional: cluster.Center[0], Pleasant: cluster.Center[1]}
}

func bounds(ds *dataset.Dataset, band recommend.Band) (lo, hi Point) {
	lo = pointOf(ds.At(band.Start))
	hi = lo
	for i := band.Start + 1; i < band.End; i++ {
		p := pointOf(ds.At(i))
		lo.Emotional = min(lo.Emotional, p.Emotional)
		lo.Pleasant = min(lo.Pleasant, p.Pleasant)
		hi.Emotional = max(hi.Emotional, p.Emotional)
		hi.Pleasant = max(hi.Pleasant, p.Pleasant)
	}
	return lo, hi
}

// labelAt returns the band-owning label for sorted index i.
func labelAt(table recommend.Table, i int) emotion.Label {
	for _, label := range recommend.BandLabels() {
		if b, _ := table.Band(label); i >= b.Start && i < b.End {
			return label
		}
	}
	return ""
}
