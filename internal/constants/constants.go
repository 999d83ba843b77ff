package constants

import "time"

const (
	DefaultHTTPTimeout = 10 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

const (
	// ThrottleKeyNamespace prefixes every throttle cache key.
	ThrottleKeyNamespace = "automation:throttle"

	// ThrottleBucketLayout truncates the acquisition time to the minute.
	ThrottleBucketLayout = "200601021504"

	MinThrottleSeconds = 10
	MaxThrottleSeconds = 3600
)

const (
	// DefaultRulesSettingKey is the settings-store key holding the
	// operator-authored automation rule JSON.
	DefaultRulesSettingKey = "automation_rules"
)

const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

const (
	ChannelInApp    = "in_app"
	ChannelTelegram = "telegram"
)

const (
	AudienceAll    = "all"
	AudienceAdmins = "admins"
	AudienceRole   = "role"
	AudienceUsers  = "users"
)

const (
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super-admin"
)

const (
	// RouteNameNone stands in for requests without a named route, both in
	// template context and throttle keys.
	RouteNameNone = "n/a"
)

const (
	DefaultFeedLimit = 50
	MaxFeedLimit     = 200
)

const (
	// DefaultBroadcastConcurrency bounds per-broadcast delivery fan-out.
	DefaultBroadcastConcurrency = 8
)
