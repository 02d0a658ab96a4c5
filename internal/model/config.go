package model

// GameConfig holds the option lists and defaults offered to clients
type GameConfig struct {
	LetterTimeOptions []int `json:"letterTimeOptions"`
	DefaultLetterTime int   `json:"defaultLetterTime"`
	WordTimeOptions   []int `json:"wordTimeOptions"`
	DefaultWordTime   int   `json:"defaultWordTime"`
	RoundsOptions     []int `json:"roundsOptions"`
	DefaultRounds     int   `json:"defaultRounds"`
}

// DefaultGameConfig returns the built-in option lists and defaults
func DefaultGameConfig() GameConfig {
	return GameConfig{
		LetterTimeOptions: []int{3, 5, 7, 10, 15},
		DefaultLetterTime: 5,
		WordTimeOptions:   []int{15, 20, 30, 45, 60, 90, 120},
		DefaultWordTime:   30,
		RoundsOptions:     []int{3, 5, 7, 10},
		DefaultRounds:     5,
	}
}
