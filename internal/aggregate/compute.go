package aggregate

import "github.com/mcoot/gameshelf/internal/model"

// ComputeGame derives a game's ratings and stats from every list entry for
// that game. Only ratings in 1..5 count towards the average and the
// distribution, so the distribution always sums to the count.
func ComputeGame(entries []model.UserGame) (model.GameRatings, model.GameStats) {
	ratings := model.ZeroRatings()
	var ratingSum int
	var hoursSum float64
	var withHours, completed int

	for i := range entries {
		ug := &entries[i]
		if r, ok := ug.RatingValue(); ok {
			ratings.Count++
			ratings.Distribution[r]++
			ratingSum += r
		}
		if ug.HoursPlayed > 0 {
			withHours++
			hoursSum += ug.HoursPlayed
		}
		if ug.Status == model.StatusCompleted {
			completed++
		}
	}

	if ratings.Count > 0 {
		ratings.Average = float64(ratingSum) / float64(ratings.Count)
	}

	stats := model.GameStats{TotalPlayers: len(entries)}
	if withHours > 0 {
		stats.AveragePlaytime = hoursSum / float64(withHours)
	}
	if stats.TotalPlayers > 0 {
		stats.CompletionRate = float64(completed) / float64(stats.TotalPlayers) * 100
	}
	return ratings, stats
}

// ComputeUser derives a user's stats from their list entries and their
// active reviews. Callers must pass active reviews only.
func ComputeUser(entries []model.UserGame, activeReviews []model.Review) model.UserStats {
	stats := model.UserStats{
		TotalGames:     len(entries),
		ReviewsWritten: len(activeReviews),
	}
	var ratingSum, rated int

	for i := range entries {
		ug := &entries[i]
		switch ug.Status {
		case model.StatusCompleted:
			stats.CompletedGames++
		case model.StatusPlaying:
			stats.CurrentlyPlaying++
		}
		stats.TotalHours += ug.HoursPlayed
		if r, ok := ug.RatingValue(); ok {
			rated++
			ratingSum += r
		}
	}

	if rated > 0 {
		stats.AverageRating = float64(ratingSum) / float64(rated)
	}
	return stats
}
