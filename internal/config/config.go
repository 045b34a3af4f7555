package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Benoitbolivard/Project-basket/internal/model"
)

// Rect is an axis-aligned boundary on the court plane.
type Rect struct {
	MinX float64 `mapstructure:"min_x" json:"min_x"`
	MinY float64 `mapstructure:"min_y" json:"min_y"`
	MaxX float64 `mapstructure:"max_x" json:"max_x"`
	MaxY float64 `mapstructure:"max_y" json:"max_y"`
}

// Contains reports whether p lies inside the rectangle. Boundaries are
// inclusive so a point exactly on an edge matches.
func (r Rect) Contains(p model.Position) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

func (r Rect) valid() bool {
	return r.MaxX > r.MinX && r.MaxY > r.MinY
}

// ZoneSpec declares one named court zone. Exactly one of Rect and
// Polygon must be set. Declaration order is the tie-break for
// overlapping boundaries (first match wins).
type ZoneSpec struct {
	Name    string           `mapstructure:"name" json:"name"`
	Rect    *Rect            `mapstructure:"rect" json:"rect,omitempty"`
	Polygon []model.Position `mapstructure:"polygon" json:"polygon,omitempty"`
	Value   int              `mapstructure:"value" json:"value"`
}

// HoopSpec is the hoop bounding region used to resolve shot attempts.
// Success is the sub-region a made shot must pass through while
// descending; it must lie inside Region.
type HoopSpec struct {
	Region  Rect `mapstructure:"region" json:"region"`
	Success Rect `mapstructure:"success" json:"success"`
}

// Config is the full calibration/configuration surface of one analysis
// session. It is read-only after session creation and may be shared by
// reference across concurrent sessions.
type Config struct {
	PossessionRadius  float64 `mapstructure:"possession_radius"`
	HysteresisFrames  int     `mapstructure:"hysteresis_frames"`
	LossTimeoutFrames int     `mapstructure:"loss_timeout_frames"`
	ShotTimeoutFrames int     `mapstructure:"shot_timeout_frames"`
	MinReleaseSpeed   float64 `mapstructure:"min_release_speed"`
	MinConfidence     float64 `mapstructure:"min_confidence"`

	Hoop  HoopSpec   `mapstructure:"hoop"`
	Zones []ZoneSpec `mapstructure:"zones"`
}

// Default returns a calibration tuned for normalized 0..1000 court
// coordinates with the hoop at the far baseline.
func Default() *Config {
	return &Config{
		PossessionRadius:  80,
		HysteresisFrames:  3,
		LossTimeoutFrames: 30,
		ShotTimeoutFrames: 90,
		MinReleaseSpeed:   200,
		MinConfidence:     0.25,
		Hoop: HoopSpec{
			Region:  Rect{MinX: 430, MinY: 860, MaxX: 570, MaxY: 960},
			Success: Rect{MinX: 470, MinY: 890, MaxX: 530, MaxY: 930},
		},
		Zones: []ZoneSpec{
			{Name: "restricted_area", Rect: &Rect{MinX: 450, MinY: 880, MaxX: 550, MaxY: 1000}, Value: 2},
			{Name: "paint", Rect: &Rect{MinX: 350, MinY: 810, MaxX: 650, MaxY: 1000}, Value: 2},
			{Name: "left_corner_three", Rect: &Rect{MinX: 0, MinY: 880, MaxX: 220, MaxY: 1000}, Value: 3},
			{Name: "right_corner_three", Rect: &Rect{MinX: 780, MinY: 880, MaxX: 1000, MaxY: 1000}, Value: 3},
			{Name: "left_wing_three", Rect: &Rect{MinX: 150, MinY: 650, MaxX: 350, MaxY: 850}, Value: 3},
			{Name: "right_wing_three", Rect: &Rect{MinX: 650, MinY: 650, MaxX: 850, MaxY: 850}, Value: 3},
			{Name: "top_three", Rect: &Rect{MinX: 350, MinY: 500, MaxX: 650, MaxY: 750}, Value: 3},
			{Name: "midrange", Rect: &Rect{MinX: 250, MinY: 750, MaxX: 750, MaxY: 900}, Value: 2},
			{Name: "backcourt", Rect: &Rect{MinX: 0, MinY: 0, MaxX: 1000, MaxY: 500}, Value: 2},
		},
	}
}

// Load reads a YAML calibration file and merges it over Default().
// An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, cfg.Validate()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations no session should be built on.
// Errors here are fatal at construction, before any frame is accepted.
func (c *Config) Validate() error {
	if c.PossessionRadius <= 0 {
		return fmt.Errorf("possession_radius must be > 0, got %v", c.PossessionRadius)
	}
	if c.HysteresisFrames < 1 {
		return fmt.Errorf("hysteresis_frames must be >= 1, got %d", c.HysteresisFrames)
	}
	if c.LossTimeoutFrames < 1 {
		return fmt.Errorf("loss_timeout_frames must be >= 1, got %d", c.LossTimeoutFrames)
	}
	if c.ShotTimeoutFrames < 1 {
		return fmt.Errorf("shot_timeout_frames must be >= 1, got %d", c.ShotTimeoutFrames)
	}
	if c.MinReleaseSpeed <= 0 {
		return fmt.Errorf("min_release_speed must be > 0, got %v", c.MinReleaseSpeed)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %v", c.MinConfidence)
	}
	if !c.Hoop.Region.valid() {
		return fmt.Errorf("hoop region is degenerate: %+v", c.Hoop.Region)
	}
	if !c.Hoop.Success.valid() {
		return fmt.Errorf("hoop success sub-region is degenerate: %+v", c.Hoop.Success)
	}
	if !c.Hoop.Region.Contains(model.Position{X: c.Hoop.Success.MinX, Y: c.Hoop.Success.MinY}) ||
		!c.Hoop.Region.Contains(model.Position{X: c.Hoop.Success.MaxX, Y: c.Hoop.Success.MaxY}) {
		return fmt.Errorf("hoop success sub-region must lie inside the hoop region")
	}
	if len(c.Zones) == 0 {
		return fmt.Errorf("zone list must not be empty")
	}
	for i, z := range c.Zones {
		if z.Name == "" {
			return fmt.Errorf("zone %d has no name", i)
		}
		if z.Name == string(model.ZoneUnknown) {
			return fmt.Errorf("zone name %q is reserved", z.Name)
		}
		hasRect := z.Rect != nil
		hasPoly := len(z.Polygon) > 0
		if hasRect == hasPoly {
			return fmt.Errorf("zone %q must declare exactly one of rect or polygon", z.Name)
		}
		if hasRect && !z.Rect.valid() {
			return fmt.Errorf("zone %q rect is degenerate: %+v", z.Name, *z.Rect)
		}
		if hasPoly && len(z.Polygon) < 3 {
			return fmt.Errorf("zone %q polygon needs at least 3 vertices, got %d", z.Name, len(z.Polygon))
		}
		if z.Value != 2 && z.Value != 3 {
			return fmt.Errorf("zone %q point value must be 2 or 3, got %d", z.Name, z.Value)
		}
	}
	return nil
}
