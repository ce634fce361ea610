package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("chatbot version %s, commit %s, built at %s", version, commit, date)
}

// placeholderAPIKey is the value shipped in the sample .env file
const placeholderAPIKey = "your_openai_api_key_here"

// Fallback secrets used when none are configured. They are public, so
// running with either one is reported by Warnings.
const (
	DefaultJWTSecret     = "your-secret-key-change-this"
	DefaultSessionSecret = "chatbot-session-secret-change-this"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Mail    MailConfig    `mapstructure:"mail"`
	Auth    AuthConfig    `mapstructure:"auth"`
	OAuth   OAuthConfig   `mapstructure:"oauth"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	Name         string        `mapstructure:"name"`
	Version      string        `mapstructure:"version"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	StaticDir    string        `mapstructure:"static_dir"`
	AllowOrigins []string      `mapstructure:"allow_origins"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	Color             bool   `mapstructure:"color"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

type OpenAIConfig struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	Temperature       float32       `mapstructure:"temperature"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	MaxTokensWithFile int           `mapstructure:"max_tokens_with_file"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

// Configured reports whether a usable API key is present
func (c OpenAIConfig) Configured() bool {
	return c.APIKey != "" && c.APIKey != placeholderAPIKey
}

type ChatConfig struct {
	HistoryLimit    int    `mapstructure:"history_limit"`
	HistoryPageSize int    `mapstructure:"history_page_size"`
	MaxTurnsPerUser int    `mapstructure:"max_turns_per_user"`
	MaxUploadBytes  int64  `mapstructure:"max_upload_bytes"`
	MaxFileChars    int    `mapstructure:"max_file_chars"`
	PersonaFile     string `mapstructure:"persona_file"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type MailConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	FromName string `mapstructure:"from_name"`
	AppURL   string `mapstructure:"app_url"`
}

// Configured reports whether SMTP credentials are present
func (c MailConfig) Configured() bool {
	return c.Username != "" && c.Password != ""
}

type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	SessionSecret   string        `mapstructure:"session_secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	OTPTTL          time.Duration `mapstructure:"otp_ttl"`
	SuccessRedirect string        `mapstructure:"success_redirect"`
	FailureRedirect string        `mapstructure:"failure_redirect"`
}

type OAuthConfig struct {
	BaseURL  string         `mapstructure:"base_url"` // public URL used to build callback URLs
	Google   ProviderConfig `mapstructure:"google"`
	Facebook ProviderConfig `mapstructure:"facebook"`
	GitHub   ProviderConfig `mapstructure:"github"`
}

type ProviderConfig struct {
	ClientID     string   `mapstructure:"client_id"`
	ClientSecret string   `mapstructure:"client_secret"`
	Scopes       []string `mapstructure:"scopes"`
}

// Enabled reports whether both client credentials are set
func (p ProviderConfig) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// legacyEnv maps config keys to the plain environment variable names the
// deployment scripts already export.
var legacyEnv = map[string]string{
	"server.port":                  "PORT",
	"openai.api_key":               "OPENAI_API_KEY",
	"mongo.uri":                    "MONGODB_URI",
	"mail.username":                "EMAIL_USER",
	"mail.password":                "EMAIL_PASSWORD",
	"auth.jwt_secret":              "JWT_SECRET",
	"auth.session_secret":          "SESSION_SECRET",
	"oauth.google.client_id":       "GOOGLE_CLIENT_ID",
	"oauth.google.client_secret":   "GOOGLE_CLIENT_SECRET",
	"oauth.facebook.client_id":     "FACEBOOK_APP_ID",
	"oauth.facebook.client_secret": "FACEBOOK_APP_SECRET",
	"oauth.github.client_id":       "GITHUB_CLIENT_ID",
	"oauth.github.client_secret":   "GITHUB_CLIENT_SECRET",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.host", "")
	v.SetDefault("server.name", "Amith Assistant Chatbot")
	v.SetDefault("server.version", "1.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 90*time.Second)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("server.allow_origins", []string{})
	v.SetDefault("server.max_body_bytes", 50<<20)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output_path", "")

	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.max_tokens_with_file", 1000)
	v.SetDefault("openai.timeout", 60*time.Second)

	v.SetDefault("chat.history_limit", 10)
	v.SetDefault("chat.history_page_size", 50)
	v.SetDefault("chat.max_turns_per_user", 0)
	v.SetDefault("chat.max_upload_bytes", 10<<20)
	v.SetDefault("chat.max_file_chars", 10000)
	v.SetDefault("chat.persona_file", "")

	v.SetDefault("mongo.database", "chatbot")
	v.SetDefault("mongo.connect_timeout", 10*time.Second)

	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from_name", "CHATBOT AI")
	v.SetDefault("mail.app_url", "http://localhost:3001")

	v.SetDefault("auth.jwt_secret", DefaultJWTSecret)
	v.SetDefault("auth.session_secret", DefaultSessionSecret)
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.otp_ttl", 10*time.Minute)
	v.SetDefault("auth.success_redirect", "/chat-with-upload.html")
	v.SetDefault("auth.failure_redirect", "/login.html")

	v.SetDefault("oauth.base_url", "")
	v.SetDefault("oauth.google.scopes", []string{"openid", "profile", "email"})
	v.SetDefault("oauth.facebook.scopes", []string{"email", "public_profile"})
	v.SetDefault("oauth.github.scopes", []string{"user:email"})
}

// InitFlags initializes command line flags (without parsing)
func InitFlags(fs *pflag.FlagSet) {
	fs.Int("port", 0, "HTTP port to listen on")
	fs.String("config", "", "Path to a config file")
	fs.String("persona-file", "", "Path to the persona (system prompt) file")
	fs.String("log-level", "", "Log level (debug|info|warn|error)")
}

// Load builds the configuration from defaults, an optional config file,
// the environment and the given flag set (which may be nil).
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CHATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, env := range legacyEnv {
		prefixed := "CHATBOT_" + strings.ToUpper(strings.NewReplacer(".", "_").Replace(key))
		if err := v.BindEnv(key, prefixed, env); err != nil {
			return nil, err
		}
	}

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/chatbot")

		// Every setting has a default or an env binding, so the file is optional
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Flags override nested keys
	if port := v.GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}
	if persona := v.GetString("persona-file"); persona != "" {
		cfg.Chat.PersonaFile = persona
	}
	if level := v.GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Chat.HistoryLimit <= 0 {
		return fmt.Errorf("chat.history_limit must be positive, got %d", c.Chat.HistoryLimit)
	}
	if c.Chat.MaxTurnsPerUser < 0 {
		return fmt.Errorf("chat.max_turns_per_user must not be negative, got %d", c.Chat.MaxTurnsPerUser)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}
	if c.Auth.OTPTTL <= 0 || c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.otp_ttl and auth.token_ttl must be positive")
	}
	return nil
}

// Warnings lists the features that run in degraded mode with this configuration
func (c *Config) Warnings() []string {
	var warnings []string
	if !c.OpenAI.Configured() {
		warnings = append(warnings, "OpenAI API key not configured: chat endpoints will fail until OPENAI_API_KEY is set")
	}
	if c.Mongo.URI == "" {
		warnings = append(warnings, "MongoDB URI not configured: users and OTPs are kept in memory")
	}
	if !c.Mail.Configured() {
		warnings = append(warnings, "Email credentials not configured: OTP emails cannot be sent (set EMAIL_USER and EMAIL_PASSWORD)")
	}
	if c.Auth.JWTSecret == DefaultJWTSecret {
		warnings = append(warnings, "JWT secret not configured: session tokens are signed with the public default (set JWT_SECRET)")
	}
	if c.Auth.SessionSecret == DefaultSessionSecret {
		warnings = append(warnings, "Session secret not configured: OAuth state is signed with the public default (set SESSION_SECRET)")
	}

	var missing []string
	if !c.OAuth.Google.Enabled() {
		missing = append(missing, "Google")
	}
	if !c.OAuth.Facebook.Enabled() {
		missing = append(missing, "Facebook")
	}
	if !c.OAuth.GitHub.Enabled() {
		missing = append(missing, "GitHub")
	}
	if len(missing) > 0 {
		warnings = append(warnings, "OAuth credentials missing for: "+strings.Join(missing, ", "))
	}
	return warnings
}
