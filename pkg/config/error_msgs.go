package config

const (
	UnexpectedError             = "An unexpected error occurred"
	AnonymousCannotCreate       = "Anonymous users cannot create a meeting"
	AnonymousCannotUpdate       = "You must be logged in to update a meeting"
	AnonymousCannotShare        = "You have to be logged in to be able to share a meeting"
	AnonymousCannotSetPerms     = "You have to be logged in to be able to change meeting permissions"
	AnonymousCannotPost         = "Only authenticated users can post on meetings"
	AnonymousCannotDelete       = "Only authenticated users can delete messages"
	AnonymousCannotRemove       = "You must be authenticated to remove a meeting from a library"
	InvalidMeetingId            = "A valid meeting id must be provided"
	InvalidPrincipalId          = "A valid principal id must be provided"
	InvalidMemberId             = "One or more of the members is not a valid principal id"
	InvalidMemberRole           = "The role change must be either manager, member or false"
	InvalidVisibility           = "An invalid meeting visibility option has been provided"
	InvalidMeetingField         = "An invalid meeting field was specified"
	InvalidMessageCreated       = "The created timestamp of the message must be a valid timestamp"
	NoChangesProvided           = "You should specify at least one field to update"
	NoMembersProvided           = "At least one principal id needs to be passed in"
	NoPermissionsProvided       = "You must specify at least one permission change"
	MeetingNotFound             = "Could not find the meeting"
	PrincipalNotFound           = "Could not find the principal"
	GroupNotFound               = "Could not find the group"
	MessageNotFound             = "Could not find the message"
	RecordingNotFound           = "Could not find the recording"
	ReplyParentNotFound         = "The message you are replying to does not exist"
	NotAllowedToView            = "You are not authorized to view this meeting"
	NotAllowedToManage          = "You are not authorized to manage this meeting"
	NotAllowedToShare           = "You are not authorized to share this meeting"
	NotAllowedToJoin            = "You are not authorized to join this meeting"
	NotAllowedToPost            = "You are not authorized to post on this meeting"
	NotAllowedToDeleteMessage   = "You are not authorized to delete this message"
	NotAllowedToViewLibrary     = "You are not authorized to view this library"
	NotAllowedToRemoveFromLib   = "You are not authorized to remove from this library"
	NotAllowedToJoinMeetup      = "You must be a member of the group to join its meetup"
	NotAllowedToCloseMeetup     = "Only group managers can close a meetup"
	TargetNotInteractable       = "One or more target members being granted access are not authorized to become members on this meeting"
	NoManagersLeft              = "The requested change results in a meeting with no managers"
	MeetingNotInLibrary         = "The specified meeting is not in this library"
	ConferencingDisabled        = "Conferencing is not enabled for this tenant"
	ConferencingUnavailable     = "Fatal error: the conferencing server could not be reached"
	InvalidRecordingId          = "A valid recording id must be provided"
	InvalidRecordingCallback    = "The recording notification could not be verified"
	InvalidAccessToken          = "Invalid access token"
	AccessTokenExpired          = "The access token has expired"
	InvalidApiKey               = "invalid API key"
	HashSignatureRequired       = "hash signature value required"
	HashSignatureVerifyFailed   = "can't verify provided information"
	InvalidPrincipalDescription = "A principal needs a valid id, tenant and display name"
)

const (
	DisplayNameRequired = "A display name must be provided"
	DisplayNameTooLong  = "A display name can be at most 1000 characters long"
	DescriptionRequired = "A description must be provided"
	DescriptionTooLong  = "A description can be at most 10000 characters long"
	MessageBodyRequired = "A message body must be provided"
	MessageBodyTooLong  = "A message body can be at most 100000 characters long"
	InvalidReplyTo      = "A valid parent message timestamp must be provided when replying"
	InvalidLimit        = "The limit must be a positive number"
	InvalidStart        = "The start token is not valid"
	InvalidRequestBody  = "The request body is not valid"
	InvalidEmail        = "A valid email address must be provided"
	SignatureRequired   = "A signature must be provided"
	UserIdRequired      = "A valid user id must be provided"
	UnknownTenant       = "The tenant of the principal is not configured"
)
