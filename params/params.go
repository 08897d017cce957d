package params

import "time"

const (
	ServerBodyLimit    = 1048576 // 1 MiB
	ServerIdleTimeout  = 30 * time.Second
	ServerReadTimeout  = 10 * time.Second
	ServerWriteTimeout = 10 * time.Second

	SessionCacheKeyPrefix = "s:"

	DefaultSessionMaxAge      = 7 * 24 * time.Hour  // session token lifetime
	DefaultSessionRetention   = 30 * 24 * time.Hour // keep revoked/expired sessions this long
	DefaultCleanupInterval    = 1 * time.Hour       // session janitor run interval
	DefaultMaxSessionsPerUser = 10                  // active sessions allowed per user

	HealthCheckServerAddr = ":3001" // health check and metrics server address
)

const Version = "1.0.0"

func VersionWithCommit(gitCommit, gitDate string) string {
	version := Version
	if len(gitCommit) >= 8 {
		version += "-" + gitCommit[:8]
	}
	if gitDate != "" {
		version += "-" + gitDate
	}
	return version
}
