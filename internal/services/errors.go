package services

import "errors"

// Sentinel errors returned by the domain services. Handlers translate
// them into HTTP statuses with errors.Is.
var (
	ErrSelfRequest      = errors.New("cannot send a friend request to yourself")
	ErrAlreadyFriends   = errors.New("users are already friends")
	ErrDuplicateRequest = errors.New("a pending friend request already exists")
	ErrRequestNotFound  = errors.New("friend request not found")

	ErrFolderExists  = errors.New("folder already exists at this path")
	ErrEntryNotFound = errors.New("file entry not found")
	ErrNotAFile      = errors.New("entry is not a file")
	ErrNameTaken     = errors.New("an entry with this name already exists at this path")

	ErrNotOwner       = errors.New("only the project owner may do this")
	ErrAlreadyMember  = errors.New("user is already a member")
	ErrUserNotFound   = errors.New("user not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrNotPermitted   = errors.New("not permitted")

	ErrCheckedOut    = errors.New("project is checked out by another user")
	ErrNotCheckedOut = errors.New("project is not checked out by this user")
)
