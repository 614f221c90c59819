package config

import "time"

// Default values matching the deployment contract: the API listens on 8000 and
// eXist-db is reached through its REST interface under /exist/rest/db.
const (
	DefaultPort       = 8000
	DefaultAdminPort  = 8001
	DefaultExistDBURL = "http://existdb:8080/exist/rest/db"
	DefaultExistUser  = "admin"

	DefaultExistDBTimeout = 20 * time.Second
	DefaultNLPTimeout     = 30 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 30 * time.Second

	DefaultEventsSubject  = "manuscripts.events"
	DefaultEventsKVBucket = "nlp-extractions"

	DefaultAuditPath        = "./orchestrator-audit.db"
	DefaultArchiveDirectory = "./manuscript-archive"
	DefaultArchiveInterval  = time.Hour
	DefaultProbeInterval    = 30 * time.Second
)

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.AdminPort == 0 {
		c.Server.AdminPort = DefaultAdminPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}

	if c.ExistDB.URL == "" {
		c.ExistDB.URL = DefaultExistDBURL
	}
	if c.ExistDB.User == "" {
		c.ExistDB.User = DefaultExistUser
	}
	if c.ExistDB.Timeout == 0 {
		c.ExistDB.Timeout = DefaultExistDBTimeout
	}

	if c.NLP.Timeout == 0 {
		c.NLP.Timeout = DefaultNLPTimeout
	}

	if c.Retry.Backoff == "" {
		c.Retry.Backoff = RetryBackoffLinear
	}
	if c.Retry.Initial == 0 {
		c.Retry.Initial = time.Second
	}
	if c.Retry.Max == 0 {
		c.Retry.Max = 30 * time.Second
	}
	if c.Retry.MaxRetries == 0 {
		c.Retry.MaxRetries = 2
	}

	if c.Events.Subject == "" {
		c.Events.Subject = DefaultEventsSubject
	}
	if c.Events.KVBucket == "" {
		c.Events.KVBucket = DefaultEventsKVBucket
	}

	if c.Audit.Path == "" {
		c.Audit.Path = DefaultAuditPath
	}

	if c.Archive.Directory == "" {
		c.Archive.Directory = DefaultArchiveDirectory
	}
	if c.Archive.Interval == 0 {
		c.Archive.Interval = DefaultArchiveInterval
	}

	if c.Health.ProbeInterval == 0 {
		c.Health.ProbeInterval = DefaultProbeInterval
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}
