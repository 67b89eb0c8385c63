package clustering

// Describe names the quadrant a centroid falls in relative to the dataset
// average.
//
// Quadrants:
//   - Many tags + High valence = "Expressive & Bright"
//   - Many tags + Low valence  = "Expressive & Dark"
//   - Few tags  + High valence = "Understated & Bright"
//   - Few tags  + Low valence  = "Understated & Dark"
//
// Values equal to the average count as low.
func Describe(p, average Point) string {
	manyTags := p.Emotional > average.Emotional
	bright := p.Pleasant > average.Pleasant

	switch {
	case manyTags && bright:
		return "Expressive & Bright"
	case manyTags:
		return "Expressive & Dark"
	case bright:
		return "Understated & Bright"
	default:
		return "Understated & Dark"
	}
}
