package redis

const (
	// rankingKey is the sorted set holding participant -> score.
	rankingKey = "ranking:scores"

	// ChangeEventChannel carries cross-instance score change events.
	ChangeEventChannel = "ranking:events"
)
