package chat

import "errors"

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotSender       = errors.New("only the sender can edit a message")
	ErrNotEditable     = errors.New("message cannot be edited")
	ErrNotParticipant  = errors.New("user is not a participant of the message")
)
