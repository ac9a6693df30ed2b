package quest

import "errors"

var (
	ErrInsufficientCandidates = errors.New("not enough locations match the selected categories")
	ErrQuestGenerationFailed  = errors.New("quest generation failed")
	ErrNoCurrentQuest         = errors.New("no current quest")
	ErrInvalidLocationIndex   = errors.New("location index out of range")
	ErrLocationLocked         = errors.New("location is still locked")
	ErrNoFoodStop             = errors.New("quest has no food stop")
)
