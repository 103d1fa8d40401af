package scoring

import "math"

// Round1 rounds to one decimal place, the precision every stored percentage
// and ranking figure uses.
func Round1(value float64) float64 {
	return math.Round(value*10) / 10
}

// TimeEfficiency maps elapsed time against the allotted duration onto [0,100].
// Finishing instantly scores 100, using the full budget (or more) scores 0.
// A non-positive allotment or negative elapsed time yields 0.
func TimeEfficiency(timeTakenSeconds, allottedSeconds int) float64 {
	if allottedSeconds <= 0 || timeTakenSeconds < 0 {
		return 0
	}

	efficiency := float64(allottedSeconds-timeTakenSeconds) / float64(allottedSeconds) * 100
	if efficiency < 0 {
		return 0
	}
	if efficiency > 100 {
		return 100
	}

	return efficiency
}

// BasePoints blends average score and average time efficiency 70/30.
func BasePoints(avgScorePercent, avgEfficiency float64) float64 {
	return Round1(avgScorePercent*0.7 + avgEfficiency*0.3)
}

// FinalPoints applies the participation weighting to base points. A student
// who attempted everything keeps the full base score; one who attempted
// nothing would keep 30% of it, though zero-attempt students never appear in
// ranked output at all.
func FinalPoints(basePoints, participationRatePercent float64) float64 {
	return Round1(basePoints * (0.3 + 0.7*(participationRatePercent/100)))
}

// ParticipationRate is the percentage of available quizzes the student
// attempted. Zero available quizzes yields zero.
func ParticipationRate(attempted, available int) float64 {
	if available <= 0 {
		return 0
	}

	return float64(attempted) / float64(available) * 100
}
