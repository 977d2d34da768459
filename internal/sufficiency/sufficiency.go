package sufficiency

import (
	"math"

	"github.com/ishwaribhoyar/AI-based-analysis-system-for-aicte-and-ugc-approval-processes-sub001/internal/blocks"
)

type Color string

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
)

const (
	outdatedPenalty   = 4
	lowQualityPenalty = 5
	invalidPenalty    = 7
	maxPenalty        = 50
	greenFloor        = 80
	yellowFloor       = 60
)

type Result struct {
	Mode           blocks.Mode   `json:"mode"`
	Percentage     float64       `json:"sufficiency_percentage"`
	Color          Color         `json:"color"`
	BasePercentage float64       `json:"base_percentage"`
	Penalty        float64       `json:"penalty"`
	Required       int           `json:"required_blocks"`
	Present        int           `json:"present_blocks"`
	Outdated       int           `json:"outdated_blocks"`
	LowQuality     int           `json:"low_quality_blocks"`
	Invalid        int           `json:"invalid_blocks"`
	PresentTypes   []blocks.Type `json:"present_block_types"`
	MissingTypes   []blocks.Type `json:"missing_blocks"`
}

// Calculate scores completeness over the ten block types. Mode is recorded but
// does not change the required count. Flag counts are per block, presence is
// per type.
func Calculate(mode blocks.Mode, bs []blocks.Block) Result {
	present := map[blocks.Type]bool{}
	r := Result{Mode: mode, Required: blocks.RequiredCount, PresentTypes: []blocks.Type{}, MissingTypes: []blocks.Type{}}
	for _, b := range bs {
		if b.Quality.IsOutdated {
			r.Outdated++
		}
		if b.Quality.IsLowQuality {
			r.LowQuality++
		}
		if b.Quality.IsInvalid {
			r.Invalid++
		}
		if b.Type.Valid() && b.Present() {
			present[b.Type] = true
		}
	}
	for _, bt := range blocks.AllTypes {
		if present[bt] {
			r.PresentTypes = append(r.PresentTypes, bt)
		} else {
			r.MissingTypes = append(r.MissingTypes, bt)
		}
	}
	r.Present = len(r.PresentTypes)

	base := float64(r.Present) / float64(r.Required) * 100
	penalty := math.Min(float64(r.Outdated*outdatedPenalty+r.LowQuality*lowQualityPenalty+r.Invalid*invalidPenalty), maxPenalty)
	r.BasePercentage = blocks.Round2(base)
	r.Penalty = penalty
	r.Percentage = blocks.Round2(math.Max(0, base-penalty))
	r.Color = colorFor(r.Percentage)
	return r
}

func colorFor(pct float64) Color {
	switch {
	case pct >= greenFloor:
		return ColorGreen
	case pct >= yellowFloor:
		return ColorYellow
	}
	return ColorRed
}
