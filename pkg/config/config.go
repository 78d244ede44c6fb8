package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendFirestore = "firestore"
	BackendMemory    = "memory"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	ServerPort      string
	Environment     string
	LogLevel        string
	FirebaseProject string

	// Exactly one of these is used to authenticate against Firebase.
	ServiceAccountJSON string
	ServiceAccountPath string

	CollectionBackend string
	// DevTokens maps static bearer tokens to "uid:role" for local runs.
	DevTokens map[string]string

	PublicRateLimit        int
	SubscriptionMaxBackoff time.Duration

	Collections Collections
}

// Collections names the documents collections the moderation engine reads and writes.
type Collections struct {
	Reviews       string
	IntakeLeads   string
	Leads         string
	LeadContacts  string
	LeadConflicts string
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		Environment:            getEnv("ENVIRONMENT", EnvProduction),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		FirebaseProject:        getEnv("FIREBASE_PROJECT_ID", ""),
		ServiceAccountJSON:     getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		ServiceAccountPath:     getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),
		CollectionBackend:      strings.ToLower(getEnv("COLLECTION_BACKEND", BackendFirestore)),
		DevTokens:              parseDevTokens(getEnv("DEV_TOKENS", "")),
		PublicRateLimit:        int(getEnvAsInt64("PUBLIC_RATE_LIMIT", 10)),
		SubscriptionMaxBackoff: time.Duration(getEnvAsInt64("SUBSCRIPTION_MAX_BACKOFF", 30)) * time.Second,
		Collections: Collections{
			Reviews:       getEnv("REVIEWS_COLLECTION", "reviews"),
			IntakeLeads:   getEnv("INTAKE_LEADS_COLLECTION", "intake_leads"),
			Leads:         getEnv("LEADS_COLLECTION", "leads"),
			LeadContacts:  getEnv("LEAD_CONTACTS_COLLECTION", "lead_contacts"),
			LeadConflicts: getEnv("LEAD_CONFLICTS_COLLECTION", "lead_conflicts"),
		},
	}

	return config, nil
}

// DevAuthEnabled reports whether static dev tokens may be accepted. A Firestore
// deployment only accepts them when ENVIRONMENT is explicitly development.
func (c *Config) DevAuthEnabled() bool {
	return c.CollectionBackend == BackendMemory || c.Environment == EnvDevelopment
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

// parseDevTokens reads "token:uid:role,token2:uid2:role2".
func parseDevTokens(raw string) map[string]string {
	tokens := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			continue
		}
		tokens[parts[0]] = parts[1]
	}
	return tokens
}
