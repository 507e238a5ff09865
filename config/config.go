package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath               = "."
	defaultBasePath           = "/bm_auth"
	defaultMaxRequestBodySize = "100KB"
	defaultBcryptCost         = 10
	defaultLogQueueSize       = 256
	defaultLogForwardTimeout  = 5 * time.Second
	defaultUsersCollection    = "users"
	defaultEmailsCollection   = "user_emails"
)

// Directory providers.
const (
	DirectoryProviderMemory    = "memory"
	DirectoryProviderFirestore = "firestore"
	DirectoryProviderPostgres  = "postgres"
)

// Identity providers.
const (
	IdentityProviderLocal    = "local"
	IdentityProviderFirebase = "firebase"
)

// Log forward providers.
const (
	LogForwardProviderNone          = "none"
	LogForwardProviderElasticsearch = "elasticsearch"
	LogForwardProviderPubSub        = "pubsub"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port int `json:"port" yaml:"port"`
		// BasePath prefixes every authentication route, e.g. /bm_auth/login.
		BasePath           string `json:"basePath" yaml:"basePath"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	PasswordStrength *PasswordStrengthConfig `json:"passwordStrength" yaml:"passwordStrength"`

	// Directory selects and configures the user record store
	Directory *DirectoryConfig `json:"directory" yaml:"directory"`

	// Identity selects the provider that issues user identifiers
	Identity *IdentityConfig `json:"identity" yaml:"identity"`

	// Firebase configuration shared by the Firestore directory and Firebase Auth identity provider
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// LogForward configuration for best-effort event shipping
	LogForward *LogForwardConfig `json:"logForward" yaml:"logForward"`

	Metrics *MetricsConfig `json:"metrics" yaml:"metrics"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost int `json:"bcryptCost" yaml:"bcryptCost"`
	// MaxConcurrentHashes bounds the number of bcrypt computations running at once (0 = GOMAXPROCS)
	MaxConcurrentHashes int `json:"maxConcurrentHashes" yaml:"maxConcurrentHashes"`
	// DistinguishLoginFailures reports unknown emails separately from wrong passwords
	DistinguishLoginFailures bool `json:"distinguishLoginFailures" yaml:"distinguishLoginFailures"`
}

// PasswordStrengthConfig defines password strength requirements
type PasswordStrengthConfig struct {
	MinLength        int  `json:"minLength" yaml:"minLength"`
	RequireUppercase bool `json:"requireUppercase" yaml:"requireUppercase"`
	RequireLowercase bool `json:"requireLowercase" yaml:"requireLowercase"`
	RequireNumbers   bool `json:"requireNumbers" yaml:"requireNumbers"`
	RequireSpecial   bool `json:"requireSpecial" yaml:"requireSpecial"`
	MaxLength        int  `json:"maxLength" yaml:"maxLength"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// DirectoryConfig defines where user records live
type DirectoryConfig struct {
	// Provider type: "memory", "firestore" or "postgres"
	Provider string `json:"provider" yaml:"provider"`

	// Firestore collection holding user documents
	UsersCollection string `json:"usersCollection" yaml:"usersCollection"`

	// Firestore collection holding one claim document per registered email
	EmailsCollection string `json:"emailsCollection" yaml:"emailsCollection"`
}

// IdentityConfig defines the identity provider
type IdentityConfig struct {
	// Provider type: "local" issues UUIDs, "firebase" creates Firebase Auth users
	Provider string `json:"provider" yaml:"provider"`
}

// FirebaseConfig defines Firebase Admin SDK configuration
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
}

// LogForwardConfig defines best-effort forwarding of audit events
type LogForwardConfig struct {
	// Provider type: "none", "elasticsearch" or "pubsub"
	Provider string `json:"provider" yaml:"provider"`

	// Elasticsearch base URL, e.g. http://elasticsearch:9200
	URL string `json:"url" yaml:"url"`

	// Elasticsearch index receiving the documents
	Index string `json:"index" yaml:"index"`

	// Google Cloud project ID (for pubsub provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for pubsub provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Number of events buffered before new ones are dropped
	QueueSize int `json:"queueSize" yaml:"queueSize"`

	// Timeout applied to each shipment
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

type MetricsConfig struct {
	Namespace string `json:"namespace" yaml:"namespace"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Environment overrides, e.g. LOGFORWARD_URL -> logForward.url
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			return canonicalizeEnvKey(k, existingConfigMap), v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()

	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv()
	}

	return cfg, nil
}

// ApplyDefaults fills every optional section so callers never nil-check.
func (cfg *Config) ApplyDefaults() {
	if strings.TrimSpace(cfg.HTTP.BasePath) == "" {
		cfg.HTTP.BasePath = defaultBasePath
	}
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = defaultBcryptCost
	}

	if cfg.PasswordStrength == nil {
		cfg.PasswordStrength = &PasswordStrengthConfig{MinLength: 6, MaxLength: 72}
	}

	if cfg.Directory == nil {
		cfg.Directory = &DirectoryConfig{}
	}
	if cfg.Directory.Provider == "" {
		cfg.Directory.Provider = DirectoryProviderMemory
	}
	if cfg.Directory.UsersCollection == "" {
		cfg.Directory.UsersCollection = defaultUsersCollection
	}
	if cfg.Directory.EmailsCollection == "" {
		cfg.Directory.EmailsCollection = defaultEmailsCollection
	}

	if cfg.Identity == nil {
		cfg.Identity = &IdentityConfig{}
	}
	if cfg.Identity.Provider == "" {
		cfg.Identity.Provider = IdentityProviderLocal
	}

	if cfg.LogForward == nil {
		cfg.LogForward = &LogForwardConfig{}
	}
	if cfg.LogForward.Provider == "" {
		cfg.LogForward.Provider = LogForwardProviderNone
	}
	if cfg.LogForward.QueueSize <= 0 {
		cfg.LogForward.QueueSize = defaultLogQueueSize
	}
	if cfg.LogForward.Timeout <= 0 {
		cfg.LogForward.Timeout = defaultLogForwardTimeout
	}

	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from POSTGRES_REPLICAS_{index}_{field} variables.
func buildReplicasFromEnv() []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		prefix := "POSTGRES_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(prefix + "HOST")
		port := os.Getenv(prefix + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(prefix + "USERNAME"),
			Password: os.Getenv(prefix + "PASSWORD"),
		})
	}

	return replicas
}
