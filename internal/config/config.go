package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	AWS       AWSConfig       `mapstructure:"aws"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Retention RetentionConfig `mapstructure:"retention"`
	Tasks     []TaskConfig    `mapstructure:"tasks"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type AWSConfig struct {
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// StorageConfig selects where artifacts land. The local backend maps
// bucket names to directories under local_path, for air-gapped runs.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	LocalPath string `mapstructure:"local_path"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type RetentionConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Days     int    `mapstructure:"days"`
	Schedule string `mapstructure:"schedule"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
}

// ConnRef points a task at one database: the secret holding its
// credentials plus optional host/database overrides that win over the
// secret's own values.
type ConnRef struct {
	SecretName string `mapstructure:"secret_name"`
	Database   string `mapstructure:"database"`
	Host       string `mapstructure:"host"`
}

// TaskConfig is one configured data-movement task. Type selects which
// fields apply: dump, copy, export, import or sql.
type TaskConfig struct {
	Name     string `mapstructure:"name"`
	Type     string `mapstructure:"type"`
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`

	// dump and sql tasks address a single database.
	SecretName string `mapstructure:"secret_name"`
	Database   string `mapstructure:"database"`

	// copy, export and import address source/destination explicitly.
	Source ConnRef `mapstructure:"source"`
	Dest   ConnRef `mapstructure:"dest"`

	SQL    string   `mapstructure:"sql"`
	Params []string `mapstructure:"params"`

	DestTable    string   `mapstructure:"dest_table"`
	DestColumns  []string `mapstructure:"dest_columns"`
	PreOperator  string   `mapstructure:"pre_operator"`
	PostOperator string   `mapstructure:"post_operator"`

	Bucket        string `mapstructure:"bucket"`
	Key           string `mapstructure:"key"`
	Replace       bool   `mapstructure:"replace"`
	EncryptAtRest bool   `mapstructure:"encrypt_at_rest"`
	Compress      bool   `mapstructure:"compress"`

	KMSKeyARN       string `mapstructure:"kms_key_arn"`
	DumpExtraParams string `mapstructure:"dump_extra_params"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app.name", "pgporter")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("storage.backend", "s3")
	v.SetDefault("retention.days", 30)
	v.SetDefault("retention.schedule", "0 0 3 * * *")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Tasks) == 0 {
		return fmt.Errorf("at least one task is required")
	}

	for i, t := range c.Tasks {
		if t.Name == "" {
			return fmt.Errorf("task[%d]: name is required", i)
		}
		if err := t.validate(); err != nil {
			return fmt.Errorf("task %q: %w", t.Name, err)
		}
	}

	switch c.Storage.Backend {
	case "", "s3":
	case "local":
		if c.Storage.LocalPath == "" {
			return fmt.Errorf("storage.local_path is required for the local backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Retention.Enabled && c.Retention.Bucket == "" {
		return fmt.Errorf("retention.bucket is required when retention is enabled")
	}

	return nil
}

func (t *TaskConfig) validate() error {
	switch t.Type {
	case "dump":
		switch {
		case t.SecretName == "":
			return fmt.Errorf("secret_name is required")
		case t.Database == "":
			return fmt.Errorf("database is required")
		case t.Bucket == "":
			return fmt.Errorf("bucket is required")
		case t.KMSKeyARN == "":
			return fmt.Errorf("kms_key_arn is required")
		}
	case "copy":
		switch {
		case t.Source.SecretName == "" || t.Dest.SecretName == "":
			return fmt.Errorf("source and dest secret_name are required")
		case t.SQL == "":
			return fmt.Errorf("sql is required")
		case t.DestTable == "":
			return fmt.Errorf("dest_table is required")
		}
	case "export":
		switch {
		case t.Source.SecretName == "":
			return fmt.Errorf("source secret_name is required")
		case t.SQL == "":
			return fmt.Errorf("sql is required")
		case t.Bucket == "" || t.Key == "":
			return fmt.Errorf("bucket and key are required")
		}
	case "import":
		switch {
		case t.Dest.SecretName == "":
			return fmt.Errorf("dest secret_name is required")
		case t.Bucket == "" || t.Key == "":
			return fmt.Errorf("bucket and key are required")
		case t.DestTable == "":
			return fmt.Errorf("dest_table is required")
		}
	case "sql":
		switch {
		case t.SecretName == "":
			return fmt.Errorf("secret_name is required")
		case t.SQL == "":
			return fmt.Errorf("sql is required")
		}
	default:
		return fmt.Errorf("unknown type %q", t.Type)
	}

	if t.Enabled && t.Schedule == "" {
		return fmt.Errorf("schedule is required when enabled")
	}

	return nil
}

func (c *Config) EnabledTasks() []TaskConfig {
	var enabled []TaskConfig
	for _, t := range c.Tasks {
		if t.Enabled {
			enabled = append(enabled, t)
		}
	}
	return enabled
}
