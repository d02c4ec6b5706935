// Package presentation renders chat-facing text from structured results.
// Nothing here touches storage or the puzzle service.
package presentation

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"wordle-golf/internal/domain"
)

// golfTerm maps a numeric day score to its golf name.
var golfTerms = map[float64]string{
	1:   "Hole in One",
	2:   "Eagle",
	3:   "Birdie",
	4:   "Par",
	5:   "Bogey",
	6:   "Albatross",
	6.5: "Triple Bogey",
}

var scoreResponses = map[float64][]string{
	1: {
		"A god among us...",
		"I would accuse you of cheating if I didn't already know you were so smart!",
		"ERROR: You are too intelligent and broke the bot",
	},
	2: {
		"Houston, Tranquility Base here. The Eagle has landed.",
		"Your wit is seldom exceeded.",
		"Good job!",
	},
	3: {
		"You really put the chicken before the egg on that one!",
		"pretty good",
		"Great day to be you.",
	},
	4: {
		"You're decidedly mediocre.",
		"You're right at the top of the bell curve.",
		"Never impressed, never disappointed",
	},
	5: {
		"Some people are just better at math.",
		"Have you tried the game Connections? The New York Times has many other games you can play.",
		"I'm not angry. I'm just very very disappointed.",
	},
	6: {
		"Maybe just sit the next round out bud",
		"Found the idiot!",
		"One strike and you're out",
	},
	6.5: {
		"It's okay honey, everyone is human.",
	},
}

type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// GolfTerm returns the golf name for a day score, or empty for values with
// no name (missed days, mulligans).
func (r *Renderer) GolfTerm(value float64) string {
	return golfTerms[value]
}

// ScoreReply acknowledges a freshly recorded score.
func (r *Renderer) ScoreReply(value float64) string {
	term, ok := golfTerms[value]
	if !ok {
		return fmt.Sprintf("You have been marked down for a score of %v.", value)
	}
	lines := scoreResponses[value]
	return fmt.Sprintf("%s! %s", term, lines[rand.Intn(len(lines))])
}

// RoundStarted announces a newly created round.
func (r *Renderer) RoundStarted(cfg domain.RoundConfig) string {
	return strings.Join([]string{
		"New round initiated! Scoring will open tomorrow!",
		"",
		fmt.Sprintf("You must submit a wordle score each day for the next %d days. The lowest score over this period wins!", cfg.Holes),
		"And may the odds be ever in your favor!",
	}, "\n")
}

// DayElapsed is the daily reminder for an unfinished round.
func (r *Renderer) DayElapsed(meta domain.RoundMetadata) string {
	remaining := meta.Holes - meta.CompletedHoles
	return strings.Join([]string{
		fmt.Sprintf("One more day down! You have %d days remaining!", remaining),
		"Don't forget to submit today's score if you want to win!",
		"",
		"Feel free to use the /scorecard command to check the current standings.",
	}, "\n")
}

// Scorecard renders the mid-round standings.
func (r *Renderer) Scorecard(card domain.Scorecard) string {
	var b strings.Builder
	b.WriteString("Current Round\n-----\n")
	fmt.Fprintf(&b, "%d days completed\n", card.Metadata.CompletedHoles)
	fmt.Fprintf(&b, "%d days remaining\n", card.Metadata.Holes-card.Metadata.CompletedHoles)
	b.WriteString("-----\nScores:\n\n")
	b.WriteString(r.results(card))
	b.WriteString("-----\nMulligans will be accounted for at the end of the round.\nThanks for playing!")
	return b.String()
}

// FinalResults renders the end-of-round announcement with winners.
func (r *Renderer) FinalResults(res domain.FinalResult) string {
	var b strings.Builder
	b.WriteString("Round Complete\n-----\n🏆🏆🏆🏆🏆\n")
	names := make([]string, len(res.Winners))
	for i, w := range res.Winners {
		names[i] = w.Name
	}
	if res.Tie {
		fmt.Fprintf(&b, "%s win!\n", strings.Join(names, " and "))
	} else if len(names) == 1 {
		fmt.Fprintf(&b, "%s wins!\n", names[0])
	}
	b.WriteString("🏆🏆🏆🏆🏆\n-----\nFinal results:\n\n")
	b.WriteString(r.results(res.Scorecard))
	return b.String()
}

func (r *Renderer) results(card domain.Scorecard) string {
	players := make([]domain.PlayerScore, 0, len(card.Scores))
	for _, ps := range card.Scores {
		players = append(players, ps)
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Total != players[j].Total {
			return players[i].Total < players[j].Total
		}
		return players[i].Player.Name < players[j].Player.Name
	})

	var b strings.Builder
	for _, ps := range players {
		symbols := make([]string, len(ps.Holes))
		for i, h := range ps.Holes {
			symbols[i] = h.Symbol
		}
		fmt.Fprintf(&b, "%s: %v\n   %s\n", ps.Player.Name, ps.Total, strings.Join(symbols, " "))
	}
	return b.String()
}

// Instructions is the static how-to-play text.
func (r *Renderer) Instructions() string {
	return strings.Join([]string{
		"Welcome to Wordle Golf! I'm here to help you keep score",
		"",
		"Each day, complete the Wordle and use the share button to submit your score to this chat thread. Only share your summary!",
		"The lowest score over the round wins!",
		"",
		"Scoring:",
		"- 1 point for each guess it took to get the word",
		"- 6.5 points if you do not finish",
		"- 7 points if you miss the day",
		"",
		"Good luck!",
	}, "\n")
}
