package service

import "github.com/mlukic/agora/internal/apperr"

var (
	ErrServerNotFound  = apperr.NotFound(apperr.CodeServerNotFound, "server not found")
	ErrChannelNotFound = apperr.NotFound(apperr.CodeChannelNotFound, "channel not found")
	ErrMessageNotFound = apperr.NotFound(apperr.CodeMessageNotFound, "message not found")
	ErrUserNotFound    = apperr.NotFound(apperr.CodeUserNotFound, "user not found")

	ErrServerNameTaken  = apperr.Validation(apperr.CodeDuplicateServerName, "server name already taken")
	ErrChannelNameTaken = apperr.Validation(apperr.CodeDuplicateChannelName, "channel name already exists in this server")
	ErrUsernameTaken    = apperr.Validation(apperr.CodeDuplicateUsername, "username already taken")
	ErrAlreadyMember    = apperr.Validation(apperr.CodeAlreadyMember, "user is already a member of this server")
	ErrNotAMember       = apperr.Validation(apperr.CodeNotAMember, "user is not a member of this server")
	ErrUserIsOwner      = apperr.Validation(apperr.CodeUserIsOwner, "the owner cannot leave their own server")
	ErrAlreadyAdmin     = apperr.Validation(apperr.CodeAlreadyAdmin, "user is already an admin")
	ErrNotAdmin         = apperr.Validation(apperr.CodeNotAdmin, "user is not an admin")
	ErrEmptyMessage     = apperr.Validation(apperr.CodeEmptyMessage, "message needs text or an attachment")
	ErrMessageTooLong   = apperr.Validation(apperr.CodeMessageTooLong, "message text exceeds 2000 characters")

	ErrAttachmentTooLarge = apperr.Validation(apperr.CodeFileTooLarge, "attachment exceeds the size ceiling")
	ErrInvalidImage       = apperr.Validation(apperr.CodeInvalidImage, "file is not an accepted image")

	ErrNotOwner         = apperr.Unauthorized("only the server owner can perform this action")
	ErrNotAuthorized    = apperr.Unauthorized("not allowed to perform this action")
	ErrFileAccessDenied = apperr.Unauthorized("not allowed to access this file")
)
