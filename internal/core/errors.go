package core

// Error codes for domain errors.
const (
	ErrCodeChannelNotFound  = "channel_not_found"
	ErrCodeAlreadyExists    = "already_exists"
	ErrCodeNotAMember       = "not_a_member"
	ErrCodeUnknownRecipient = "unknown_recipient"
	ErrCodeNameConflict     = "name_conflict"
	ErrCodeMalformed        = "malformed_command"
)

// DomainError carries a machine code and the exact notice line the
// invoking connection receives.
type DomainError struct {
	Code   string
	Notice string
}

func (e *DomainError) Error() string {
	return e.Notice
}

var (
	ErrChannelNotFound  = &DomainError{Code: ErrCodeChannelNotFound, Notice: "Channel does not exist"}
	ErrAlreadyExists    = &DomainError{Code: ErrCodeAlreadyExists, Notice: "Channel already exists"}
	ErrNotAMember       = &DomainError{Code: ErrCodeNotAMember, Notice: "You are not in this channel"}
	ErrUnknownRecipient = &DomainError{Code: ErrCodeUnknownRecipient, Notice: "There is no user with such name."}
	ErrNameConflict     = &DomainError{Code: ErrCodeNameConflict, Notice: "Name already in use"}
	ErrMalformed        = &DomainError{Code: ErrCodeMalformed, Notice: "Malformed command"}
)
