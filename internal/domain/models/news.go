package models

import "time"

// NewsArticle is one recent-news record scanned by the keyword override.
type NewsArticle struct {
	Title          string
	Description    string
	PublishedAt    time.Time
	SentimentScore float64
}

// OverrideDecision records whether the keyword override replaced the label.
// TriggeringKeywords is ordered deterministically.
type OverrideDecision struct {
	Triggered          bool
	Label              Label
	BullishScore       float64
	BearishScore       float64
	NetScore           float64
	BullishMatches     int
	BearishMatches     int
	TriggeringKeywords []string
	CooldownBlocked    bool
}
