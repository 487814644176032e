package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type SettlementConfig struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	SettlementDB `yaml:"settlement_db"`
	LogConfig    `yaml:"log_config"`
	Kafka        `yaml:"kafka"`
	Redis        `yaml:"redis"`
	Auth         `yaml:"auth"`
	AI           `yaml:"ai"`
	Generation   `yaml:"generation"`
}

type HTTPServer struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"15s"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

type SettlementDB struct {
	Dsn            string `yaml:"dsn" env:"SETTLEMENT_DB_DSN" env-required:"true"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type Kafka struct {
	Brokers          []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Username         string   `yaml:"username" env:"KAFKA_USERNAME"`
	Password         string   `yaml:"password" env:"KAFKA_PASSWORD"`
	Mechanism        string   `yaml:"mechanism" env:"KAFKA_SASL_MECHANISM"`
	TLSEnabled       bool     `yaml:"tls_enabled" env:"KAFKA_TLS_ENABLED"`
	NegotiationTopic string   `yaml:"negotiation_topic" env-default:"negotiation-events"`
	InvitationTopic  string   `yaml:"invitation_topic" env-default:"invitation-events"`
	PartyTopic       string   `yaml:"party_topic" env-default:"party-events"`
	GroupID          string   `yaml:"group_id" env-default:"settlement-service"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER"`
}

type AI struct {
	ResponsesURL string `yaml:"responses_url" env:"AI_RESPONSES_URL" env-default:"https://api.openai.com/v1/responses"`
	APIKey       string `yaml:"api_key" env:"AI_API_KEY"`
	Model        string `yaml:"model" env:"AI_MODEL" env-default:"gpt-4.1-mini"`
}

type Generation struct {
	Timeout        time.Duration `yaml:"timeout" env:"GENERATION_TIMEOUT" env-default:"5m"`
	StaleAfter     time.Duration `yaml:"stale_after" env:"GENERATION_STALE_AFTER" env-default:"10m"`
	// postgres | redis
	LockBackend    string        `yaml:"lock_backend" env:"GENERATION_LOCK_BACKEND" env-default:"postgres"`
	ReaperInterval time.Duration `yaml:"reaper_interval" env-default:"1m"`
}

// Normalize fills in the timeout and keeps StaleAfter at least twice the
// timeout. A lease younger than StaleAfter may still have a generator call
// running, so taking it over earlier would start a second one.
func (g Generation) Normalize() Generation {
	if g.Timeout <= 0 {
		g.Timeout = 5 * time.Minute
	}
	if g.StaleAfter <= g.Timeout {
		g.StaleAfter = 2 * g.Timeout
	}
	return g
}

func MustLoad() *SettlementConfig {

	// Processing env config variable and file
	configPath := os.Getenv("SETTLEMENT_CONFIG_PATH")

	if configPath == "" {
		log.Fatalf("SETTLEMENT_CONFIG_PATH was not found\n")
	}

	if _, err := os.Stat(configPath); err != nil {
		log.Fatalf("failed to find config file: %v\n", err)
	}

	// YAML to struct object
	var cfg SettlementConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	generation := cfg.Generation.Normalize()
	if generation.StaleAfter != cfg.Generation.StaleAfter {
		log.Printf("generation.stale_after %s is not above generation.timeout %s, using %s\n",
			cfg.Generation.StaleAfter, cfg.Generation.Timeout, generation.StaleAfter)
	}
	cfg.Generation = generation

	return &cfg
}
