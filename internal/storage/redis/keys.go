package redis

import "fmt"

// Key prefix for all audit data
const keyPrefix = "wordduel"

// Event types written to the audit stream
const (
	eventPlayerJoin     = "player-join"
	eventGameStart      = "game-start"
	eventRound          = "round"
	eventGameCompletion = "game-completion"
)

// streamKey returns the Redis key for the append-only audit stream
func streamKey() string {
	return fmt.Sprintf("%s:audit", keyPrefix)
}

// gameKey returns the Redis key for the summary HASH of a game
func gameKey(gameID string) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, gameID)
}

// gamePlayersKey returns the Redis key for the LIST of join records of a game
func gamePlayersKey(gameID string) string {
	return fmt.Sprintf("%s:game:%s:players", keyPrefix, gameID)
}

// gameRoundsKey returns the Redis key for the LIST of round records of a game
func gameRoundsKey(gameID string) string {
	return fmt.Sprintf("%s:game:%s:rounds", keyPrefix, gameID)
}
