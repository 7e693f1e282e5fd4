package config

import "time"

const (
	ResourceTypeMeeting = "meeting"

	VisibilityPublic   = "public"
	VisibilityLoggedIn = "loggedin"
	VisibilityPrivate  = "private"

	RoleManager = "manager"
	RoleMember  = "member"

	MeetingIdPrefix = "m"
	UserIdPrefix    = "u"
	GroupIdPrefix   = "g"

	MaxDisplayNameLength = 1000
	MaxDescriptionLength = 10000
	MaxMessageBodyLength = 100000

	DefaultLibraryLimit = 10
	MaxLibraryLimit     = 25
	DefaultMembersLimit = 10
	MaxMembersLimit     = 100
	ReindexBatchSize    = 100
	MaxActivityEntries  = 50

	DefaultEventSubjectPrefix = "pnm.meetings"
	EventQueueGroup           = "pnm-meetings-workers"
	RedisClientName           = "pnm-meetings"

	// MeetingUpdateThreshold bounds how often activity on a meeting may bump
	// its lastModified and re-rank the libraries that hold it.
	MeetingUpdateThreshold = 3600 * time.Second

	MeetingStartPollInterval   = 1000 * time.Millisecond
	MeetingStartPollMaxRetries = 6
	MeetingStartPollLockTTL    = 3 * time.Minute

	BBBRequestTimeout      = 10 * time.Second
	LibraryPropagationPool = 5
)
