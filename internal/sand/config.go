package sand

import (
	"fmt"
	"math"
	"strings"
)

// BrushPattern selects the cells a brush spawn covers.
type BrushPattern uint8

const (
	BrushSingle BrushPattern = iota
	BrushPlus
)

// TieBreak chooses the slide direction when both diagonals are free.
type TieBreak uint8

const (
	PreferLeft TieBreak = iota
	PreferRight
	// Alternate flips sides with the parity of tick and particle id.
	Alternate
)

// FloorMode decides what happens to sand reaching the floor.
type FloorMode uint8

const (
	FloorClamp FloorMode = iota
	FloorDespawn
)

var (
	brushNames = []string{"single", "plus"}
	tieNames   = []string{"left", "right", "alternate"}
	floorNames = []string{"clamp", "despawn"}
)

func (b BrushPattern) String() string { return enumName(brushNames, int(b)) }
func (t TieBreak) String() string     { return enumName(tieNames, int(t)) }
func (f FloorMode) String() string    { return enumName(floorNames, int(f)) }

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("unknown(%d)", i)
	}
	return names[i]
}

func enumIndex(names []string, kind, s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown %s %q (want one of %s)", ErrInvalidConfig, kind, s, strings.Join(names, ", "))
}

func ParseBrush(s string) (BrushPattern, error) {
	i, err := enumIndex(brushNames, "brush", s)
	return BrushPattern(i), err
}

func ParseTieBreak(s string) (TieBreak, error) {
	i, err := enumIndex(tieNames, "tie-break", s)
	return TieBreak(i), err
}

func ParseFloor(s string) (FloorMode, error) {
	i, err := enumIndex(floorNames, "floor mode", s)
	return FloorMode(i), err
}

// Config holds the engine parameters. Width of zero leaves the columns
// unbounded; Height is the initial viewport height and positions the floor.
type Config struct {
	CellSize    float32
	FallSpeed   float32
	BrushRadius int32
	Brush       BrushPattern
	TieBreak    TieBreak
	Floor       FloorMode
	SleepAfter  int
	Width       float32
	Height      float32
}

func DefaultConfig() Config {
	return Config{
		CellSize:    5,
		FallSpeed:   120,
		BrushRadius: 2,
		Brush:       BrushSingle,
		TieBreak:    PreferLeft,
		Floor:       FloorClamp,
		SleepAfter:  2,
		Height:      720,
	}
}

func (c Config) Validate() error {
	switch {
	case !(c.CellSize > 0) || !(c.CellSize < MaxCoord):
		return fmt.Errorf("%w: cell size must be positive and below %d, got %v", ErrInvalidConfig, MaxCoord, c.CellSize)
	case !(c.FallSpeed > 0) || !finite(c.FallSpeed):
		return fmt.Errorf("%w: fall speed must be positive and finite, got %v", ErrInvalidConfig, c.FallSpeed)
	case c.BrushRadius < 0 || c.BrushRadius > maxCell:
		return fmt.Errorf("%w: brush radius must be in [0, %d], got %d", ErrInvalidConfig, maxCell, c.BrushRadius)
	case c.SleepAfter < 0:
		return fmt.Errorf("%w: sleep after must not be negative, got %d", ErrInvalidConfig, c.SleepAfter)
	case !(c.Width >= 0) || !extent(c.Width, c.CellSize):
		return fmt.Errorf("%w: width must be non-negative with a half-span below %d, got %v", ErrInvalidConfig, MaxCoord, c.Width)
	case !(c.Height > 0) || !extent(c.Height, c.CellSize):
		return fmt.Errorf("%w: height must be positive with a half-span below %d, got %v", ErrInvalidConfig, MaxCoord, c.Height)
	case int(c.Brush) >= len(brushNames):
		return fmt.Errorf("%w: unknown brush %d", ErrInvalidConfig, c.Brush)
	case int(c.TieBreak) >= len(tieNames):
		return fmt.Errorf("%w: unknown tie-break %d", ErrInvalidConfig, c.TieBreak)
	case int(c.Floor) >= len(floorNames):
		return fmt.Errorf("%w: unknown floor mode %d", ErrInvalidConfig, c.Floor)
	}
	return nil
}

func finite(v float32) bool {
	return !math.IsInf(float64(v), 0) && !math.IsNaN(float64(v))
}

// extent reports whether a viewport dimension keeps its half-span inside
// the addressable range, both in world units and in cells.
func extent(v, size float32) bool {
	half := float64(v) / 2
	return within(half) && math.Abs(half/float64(size)) < maxCell
}
