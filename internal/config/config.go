package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"15"`
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
		AutoMigrate        bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	} `envPrefix:"DATABASE_"`
	InitialAdmin struct {
		Username string `env:"USERNAME" envDefault:"admin"`
		Password string `env:"PASSWORD,required"`
		FullName string `env:"FULL_NAME" envDefault:"Jefatura de Guardia"`
		Email    string `env:"EMAIL,required"`
	} `envPrefix:"INITIAL_ADMIN_"`
	JWT struct {
		Expiration int    `env:"EXPIRATION" envDefault:"1209600"` // 14 days
		Secret     string `env:"SECRET,required"`
	} `envPrefix:"JWT_"`
	Seed struct {
		User struct {
			Password string `env:"PASSWORD" envDefault:"guardia1234"`
		} `envPrefix:"USER_"`
		Doctors int `env:"DOCTORS" envDefault:"12"`
	} `envPrefix:"SEED_"`
	Email struct {
		UserDomain string `env:"USER_DOMAIN" envDefault:"hospital.local"`
		SMTP       struct {
			Username    string `env:"USERNAME"`
			Password    string `env:"PASSWORD"`
			Host        string `env:"HOST" envDefault:"localhost"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		Queue          string `env:"QUEUE" envDefault:"email_queue"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host                string `env:"HOST" envDefault:"localhost"`
		Port                int    `env:"PORT" envDefault:"6379"`
		Password            string `env:"PASSWORD"`
		ConnectTimeout      int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		OperationExpiration int    `env:"OPERATION_EXPIRATION" envDefault:"10"`
		EventsChannel       string `env:"EVENTS_CHANNEL" envDefault:"shift_events"`
	} `envPrefix:"REDIS_"`
	Lifecycle struct {
		FreePendingThreshold time.Duration `env:"FREE_PENDING_THRESHOLD" envDefault:"12h"`
		ReminderLead         time.Duration `env:"REMINDER_LEAD" envDefault:"24h"`
	} `envPrefix:"LIFECYCLE_"`
	Sweeper struct {
		Schedule string `env:"SCHEDULE" envDefault:"@every 5m"` // robfig/cron spec
	} `envPrefix:"SWEEPER_"`
	Log struct {
		Level  string `env:"LEVEL" envDefault:"info"`
		Format string `env:"FORMAT" envDefault:"json"` // json | console
	} `envPrefix:"LOG_"`
	NewUser struct {
		PasswordLength int `env:"PASSWORD_LENGTH" envDefault:"12"`
	} `envPrefix:"NEW_USER_"`
}

// LoadConfig reads a .env file when one exists and then parses the process
// environment. Variables already set in the environment win over the file.
func LoadConfig(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// only the first error keeps the log readable
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	return cfg, nil
}

func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Database.QueryTimeout) * time.Second
}

func (c *Config) TransactionTimeout() time.Duration {
	return time.Duration(c.Database.TransactionTimeout) * time.Second
}
