// Package reliability turns source coverage and record completeness into a
// confidence score.
package reliability

import "abuse-rec/internal/core/record"

// Level is the coarse confidence bucket of a Score.
type Level string

const (
	LevelLow    Level = "LOW"
	LevelMedium Level = "MEDIUM"
	LevelHigh   Level = "HIGH"
)

const (
	pointsPerSource  = 25
	pointsDetails    = 10
	pointsAbuseEmail = 15
	pointsNameServer = 10
	pointsRelated    = 5
	maxScore         = 100

	highThreshold   = 80
	mediumThreshold = 60
)

// Score is computed once per lookup and never changed afterwards.
type Score struct {
	Score        int               `json:"score"`
	Level        Level             `json:"level"`
	SourcesUsed  []record.SourceID `json:"sourcesUsed"`
	TotalSources int               `json:"totalSources"`
}

// Compute scores a consolidated record given the sources that succeeded and
// the number of sources that were attempted. Duplicate ids count once.
func Compute(succeeded []record.SourceID, rec record.ConsolidatedRecord, total int) Score {
	used := make([]record.SourceID, 0, len(succeeded))
	seen := make(map[record.SourceID]struct{}, len(succeeded))
	for _, id := range succeeded {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		used = append(used, id)
	}

	points := len(used) * pointsPerSource
	if !rec.RegistrarDetails.IsEmpty() {
		points += pointsDetails
	}
	if rec.Contacts.Abuse.Email != "" {
		points += pointsAbuseEmail
	}
	if len(rec.NameServers) > 0 {
		points += pointsNameServer
	}
	if len(rec.RelatedDomains) > 0 {
		points += pointsRelated
	}
	if points > maxScore {
		points = maxScore
	}

	return Score{
		Score:        points,
		Level:        LevelFor(points),
		SourcesUsed:  used,
		TotalSources: total,
	}
}

// LevelFor maps a numeric score onto its level.
func LevelFor(score int) Level {
	switch {
	case score >= highThreshold:
		return LevelHigh
	case score >= mediumThreshold:
		return LevelMedium
	default:
		return LevelLow
	}
}
