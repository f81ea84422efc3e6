package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mcoot/gameshelf/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
	errW   io.Writer
}

// NewOutput creates a new Output formatter writing to w and errW
func NewOutput(format string, w, errW io.Writer) *Output {
	return &Output{format: format, w: w, errW: errW}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.errW, string(data))
	} else {
		_, _ = fmt.Fprintf(o.errW, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Health:
		o.printf("Status: %s\n", v.Status)
	case response.Game:
		o.printGame(v)
	case response.UserStats:
		o.printUserStats(v)
	case response.RecomputeAll:
		o.printf("Recomputed %d games and %d users\n", v.Games, v.Users)
	case response.Recompute:
		o.printf("Recomputed %s %s\n", v.Kind, v.ID)
	case response.Verify:
		o.printVerify(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printGame(g response.Game) {
	o.printf("Game: %s (%s)\n", g.Title, g.ID)
	if g.Developer != "" {
		o.printf("Developer: %s\n", g.Developer)
	}
	o.printf("Rating: %.2f from %d ratings\n", g.Ratings.Average, g.Ratings.Count)
	for star := 5; star >= 1; star-- {
		n := g.Ratings.Distribution[star]
		o.printf("  %d* %s %d\n", star, strings.Repeat("#", min(n, 40)), n)
	}
	o.printf("Players: %d\n", g.Stats.TotalPlayers)
	o.printf("Average playtime: %.1fh\n", g.Stats.AveragePlaytime)
	o.printf("Completion rate: %.2f%%\n", g.Stats.CompletionRate)
}

func (o *Output) printUserStats(u response.UserStats) {
	o.printf("User: %s (%s)\n", u.DisplayName, u.Username)
	o.printf("Followers: %d  Following: %d\n", u.Followers, u.Following)
	o.printf("Games: %d (completed %d, playing %d)\n",
		u.Stats.TotalGames, u.Stats.CompletedGames, u.Stats.CurrentlyPlaying)
	o.printf("Hours played: %.1f\n", u.Stats.TotalHours)
	o.printf("Average rating: %.2f\n", u.Stats.AverageRating)
	o.printf("Reviews: %d\n", u.Stats.ReviewsWritten)
}

func (o *Output) printVerify(v response.Verify) {
	o.printf("Checked %d users, %d games, %d list entries, %d reviews\n",
		v.Users, v.Games, v.UserGames, v.Reviews)
	if v.OK {
		o.printf("No issues found\n")
		return
	}
	o.printf("Issues (%d):\n", len(v.Issues))
	for _, issue := range v.Issues {
		o.printf("  - [%s] %s: %s\n", issue.Kind, issue.ID, issue.Detail)
	}
}
