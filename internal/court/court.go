// Package court maps court-plane positions to named zones using the
// calibrated zone boundaries.
package court

import (
	"github.com/Benoitbolivard/Project-basket/internal/config"
	"github.com/Benoitbolivard/Project-basket/internal/model"
)

// ZoneClassifier classifies positions against an ordered zone list.
// Classification is pure and total: positions outside every declared
// boundary map to model.ZoneUnknown. Declaration order is the
// tie-break for overlapping boundaries.
type ZoneClassifier struct {
	zones  []config.ZoneSpec
	values map[model.CourtZone]int
}

// NewZoneClassifier builds a classifier from validated calibration.
func NewZoneClassifier(zones []config.ZoneSpec) *ZoneClassifier {
	values := make(map[model.CourtZone]int, len(zones))
	for _, z := range zones {
		values[model.CourtZone(z.Name)] = z.Value
	}
	return &ZoneClassifier{zones: zones, values: values}
}

// Classify returns the first declared zone containing p.
func (zc *ZoneClassifier) Classify(p model.Position) model.CourtZone {
	for _, z := range zc.zones {
		if z.Rect != nil {
			if z.Rect.Contains(p) {
				return model.CourtZone(z.Name)
			}
			continue
		}
		if pointInPolygon(p, z.Polygon) {
			return model.CourtZone(z.Name)
		}
	}
	return model.ZoneUnknown
}

// PointValue returns the scoring value of a zone (3 for three-point
// zones, otherwise 2). Unknown zones count as 2.
func (zc *ZoneClassifier) PointValue(zone model.CourtZone) int {
	if v, ok := zc.values[zone]; ok {
		return v
	}
	return 2
}

// pointInPolygon is the even-odd ray casting test. Points on an edge
// classify consistently across calls for a fixed polygon.
func pointInPolygon(p model.Position, poly []model.Position) bool {
	inside := false
	j := len(poly) - 1
	for i := 0; i < len(poly); i++ {
		pi, pj := poly[i], poly[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
		j = i
	}
	return inside
}
