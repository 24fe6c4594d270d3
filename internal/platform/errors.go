package platform

import (
	"errors"
	"fmt"
)

// Platform API error codes the bot treats as transient or expected.
const (
	CodeUnknownChannel            = 10003
	CodeUnknownGuild              = 10004
	CodeUnknownMessage            = 10008
	CodeUnknownUser               = 10013
	CodeUnknownInteraction        = 10062
	CodeMaxPinsReached            = 30003
	CodeMaxActiveThreads          = 160006
	CodeCannotSendMessagesToUser  = 50007
	CodeReactionBlocked           = 90001
	CodeMissingPermissions        = 50013
	CodeInteractionAlreadyReplied = 40060
)

var ignorableCodes = map[int]struct{}{
	CodeUnknownMessage:           {},
	CodeUnknownChannel:           {},
	CodeUnknownGuild:             {},
	CodeUnknownUser:              {},
	CodeUnknownInteraction:       {},
	CodeMaxPinsReached:           {},
	CodeCannotSendMessagesToUser: {},
	CodeReactionBlocked:          {},
	CodeMaxActiveThreads:         {},
}

// Error is a failed platform API call.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("platform error %d: %s", e.Code, e.Message)
}

// IsIgnorable reports whether err is a platform error whose code is on the allow-list
// of non-fatal failures (unknown targets, DMs blocked, thread and pin limits).
func IsIgnorable(err error) bool {
	var pe *Error
	if !errors.As(err, &pe) {
		return false
	}
	_, ok := ignorableCodes[pe.Code]
	return ok
}

// Swallow returns nil for ignorable platform errors and err otherwise.
func Swallow(err error) error {
	if err == nil || IsIgnorable(err) {
		return nil
	}
	return err
}
