package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	IRCAddr     string   `envconfig:"IRC_ADDR" default:"irc.libera.chat:6697"`
	IRCNick     string   `envconfig:"IRC_NICK" default:"portbot"`
	IRCUser     string   `envconfig:"IRC_USER" default:"portbot"`
	IRCRealname string   `envconfig:"IRC_REALNAME" default:"MacPorts helper"`
	IRCPass     string   `envconfig:"IRC_PASS"`
	IRCChannels []string `envconfig:"IRC_CHANNELS" default:"#macports"`
	Prefix      string   `envconfig:"COMMAND_PREFIX" default:"!"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"sqlite"` // sqlite|redis|postgres
	DBPath        string `envconfig:"DB_PATH" default:"./data/portbot.db"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`

	PortBin           string        `envconfig:"PORT_BIN" default:"/opt/local/bin/port"`
	DateBin           string        `envconfig:"DATE_BIN" default:"date"`
	LookupTimeout     time.Duration `envconfig:"LOOKUP_TIMEOUT" default:"15s"`
	HeraldMinInterval time.Duration `envconfig:"HERALD_MIN_INTERVAL" default:"10m"`
	TracURL           string        `envconfig:"TRAC_URL" default:"https://trac.macports.org"`

	Workers   int     `envconfig:"WORKERS" default:"4"`
	QueueSize int     `envconfig:"QUEUE_SIZE" default:"256"`
	SendRate  float64 `envconfig:"SEND_RATE" default:"1"` // lines per second
	SendBurst int     `envconfig:"SEND_BURST" default:"4"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"` // healthz + metrics
}

// Load reads environment variables into Config.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
