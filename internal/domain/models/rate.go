package models

// ActionClass группа действий с общим бакетом
type ActionClass string

const (
	ActionMessage ActionClass = "message"
	ActionCommand ActionClass = "command"
	ActionMedia   ActionClass = "media"
	ActionCall    ActionClass = "call"

	// ActionSpeaking только смены состояния, клиент шлет speaking до 10 раз в секунду
	ActionSpeaking ActionClass = "speaking"
)

// RateLimit емкость бакета и скорость пополнения в токенах в секунду
type RateLimit struct {
	Burst     int
	PerSecond float64
}

func DefaultRateLimits() map[ActionClass]RateLimit {
	return map[ActionClass]RateLimit{
		ActionMessage:  {Burst: 10, PerSecond: 1},
		ActionCommand:  {Burst: 5, PerSecond: 0.5},
		ActionMedia:    {Burst: 5, PerSecond: 0.2},
		ActionCall:     {Burst: 3, PerSecond: 0.1},
		ActionSpeaking: {Burst: 10, PerSecond: 10},
	}
}

type BucketStatus struct {
	Tokens    float64 `json:"tokens"`
	MaxTokens int     `json:"maxTokens"`
	PerSecond float64 `json:"refillRate"`
}
