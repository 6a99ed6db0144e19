package models

// Badge is a static achievement definition. The catalog lives in code, not
// in the store; whether a badge is earned is recomputed from user data on
// every request.
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Requirement int    `json:"requirement"`
}

const (
	BadgeFirstAnswer   = "first_answer"
	BadgePerfectStreak = "perfect_streak"
	BadgeDedicated     = "dedicated"
	BadgeCentury       = "century"
	BadgeMaster        = "master"
)

// BadgeCatalog is ordered by requirement so the "next badge" progress view
// can take the first entry the user has not reached yet.
var BadgeCatalog = []Badge{
	{
		ID:          BadgeFirstAnswer,
		Name:        "First Step",
		Description: "Answer your first question",
		Icon:        "🎯",
		Requirement: 1,
	},
	{
		ID:          BadgePerfectStreak,
		Name:        "Perfect!",
		Description: "Get 10 correct answers in a row",
		Icon:        "⭐",
		Requirement: 10,
	},
	{
		ID:          BadgeDedicated,
		Name:        "Dedicated Learner",
		Description: "Answer 50 questions",
		Icon:        "📚",
		Requirement: 50,
	},
	{
		ID:          BadgeCentury,
		Name:        "Century",
		Description: "Reach 100 points",
		Icon:        "💯",
		Requirement: 100,
	},
	{
		ID:          BadgeMaster,
		Name:        "Quiz Master",
		Description: "Reach 1000 points",
		Icon:        "🏆",
		Requirement: 1000,
	},
}
