package history

// Duel outcomes from the subject's perspective.
const (
	OutcomeWin  = "win"
	OutcomeLose = "lose"
	OutcomeDraw = "draw"
)

// Outcome classifies one duel record. Equal scores count as a loss unless
// tiesAsDraw is set.
func Outcome(subjectScore, opponentScore int, tiesAsDraw bool) string {
	switch {
	case subjectScore > opponentScore:
		return OutcomeWin
	case subjectScore == opponentScore && tiesAsDraw:
		return OutcomeDraw
	default:
		return OutcomeLose
	}
}
