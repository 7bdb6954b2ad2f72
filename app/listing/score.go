package listing

import "math"

// Score keys written by the external scorer.
const (
	ScorePhotosDivisions = "photos_divisions"
	ScoreDuplicates      = "duplicates"
	ScorePhotoQuality    = "photo_quality"
	ScoreLocationOK      = "location_ok"
	ScoreDescriptionOK   = "description_ok"
	ScoreBaseInfoOK      = "base_info_ok"
)

const checklistTotal = 6

// RawScore is the decoded score_json object. A nil RawScore means the
// listing has not been scored.
type RawScore map[string]any

// Checklist is the pass/fail view of a RawScore.
//
// photos_divisions and duplicates are "problem detected" flags, so their
// outcomes are negated here and nowhere else.
type Checklist struct {
	PhotosDivisionsOk bool
	NoDuplicatesOk    bool
	PhotoQuality      bool
	LocationOk        bool
	DescriptionOk     bool
	BaseInfoOk        bool

	HasData bool
}

// CheckItem is one labelled checklist line.
type CheckItem struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Passed bool   `json:"passed"`
}

// ReconcileScore maps a raw score to the checklist. With no score at all
// every check fails, including the inverted ones.
func ReconcileScore(raw RawScore) Checklist {
	if raw == nil {
		return Checklist{}
	}

	return Checklist{
		PhotosDivisionsOk: !truthy(raw[ScorePhotosDivisions]),
		NoDuplicatesOk:    !truthy(raw[ScoreDuplicates]),
		PhotoQuality:      isTrue(raw[ScorePhotoQuality]),
		LocationOk:        isTrue(raw[ScoreLocationOK]),
		DescriptionOk:     isTrue(raw[ScoreDescriptionOK]),
		BaseInfoOk:        isTrue(raw[ScoreBaseInfoOK]),
		HasData:           true,
	}
}

// Items returns the checks in display order.
func (c Checklist) Items() []CheckItem {
	return []CheckItem{
		{Key: ScorePhotosDivisions, Label: "Photos Divisions", Passed: c.PhotosDivisionsOk},
		{Key: ScoreDuplicates, Label: "No Duplicates", Passed: c.NoDuplicatesOk},
		{Key: ScorePhotoQuality, Label: "Photo Quality", Passed: c.PhotoQuality},
		{Key: ScoreLocationOK, Label: "Location OK", Passed: c.LocationOk},
		{Key: ScoreDescriptionOK, Label: "Description OK", Passed: c.DescriptionOk},
		{Key: ScoreBaseInfoOK, Label: "Base Info OK", Passed: c.BaseInfoOk},
	}
}

// Passed counts passing checks.
func (c Checklist) Passed() int {
	passed := 0
	for _, item := range c.Items() {
		if item.Passed {
			passed++
		}
	}
	return passed
}

func (c Checklist) Total() int {
	return checklistTotal
}

func isTrue(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// truthy follows JSON value truthiness: null, false, 0 and "" are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0 && !math.IsNaN(t)
	case int:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
