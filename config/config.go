package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string         `mapstructure:"env"`
	LogLevel        string         `mapstructure:"log_level"`
	LogType         string         `mapstructure:"log_type"`
	ServiceName     string         `mapstructure:"service_name"`
	Version         string         `mapstructure:"version"`
	PortalSettings  *PortalConfig  `mapstructure:"portal"`
	WorkerSettings  *WorkerConfig  `mapstructure:"worker"`
	ReportSettings  *ReportConfig  `mapstructure:"report"`
	CacheSettings   *CacheConfig   `mapstructure:"cache"`
	HistorySettings *HistoryConfig `mapstructure:"history"`
	S3Settings      *S3Config      `mapstructure:"s3"`
	KafkaSettings   *KafkaConfig   `mapstructure:"kafka"`
	MetricsSettings *MetricsConfig `mapstructure:"metrics"`
}

type PortalConfig struct {
	URL               string        `mapstructure:"url"`
	Mechanism         string        `mapstructure:"mechanism"`
	PinInputID        string        `mapstructure:"pin_input_id"`
	SemesterSelectID  string        `mapstructure:"semester_select_id"`
	SubmitSelector    string        `mapstructure:"submit_selector"`
	ResultContainerID string        `mapstructure:"result_container_id"`
	ErrorIndicator    string        `mapstructure:"error_indicator"`
	UserAgent         string        `mapstructure:"user_agent"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	Semesters         []string      `mapstructure:"semesters"`
}

type WorkerConfig struct {
	MaxWorkers     int           `mapstructure:"max_workers"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
	PinDigitBudget int           `mapstructure:"pin_digit_budget"`
}

type ReportConfig struct {
	OutputDir     string `mapstructure:"output_dir"`
	Excel         bool   `mapstructure:"excel"`
	Pdf           bool   `mapstructure:"pdf"`
	Zip           bool   `mapstructure:"zip"`
	TopPerformers int    `mapstructure:"top_performers"`
}

type CacheConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Backend      string        `mapstructure:"backend"`
	Servers      string        `mapstructure:"servers"`
	TtlForRecord time.Duration `mapstructure:"ttl_for_record"`
}

type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type S3Config struct {
	Enabled         bool   `mapstructure:"enabled"`
	AwsAccessKey    string `mapstructure:"aws_access_key"`
	AwsSecretKey    string `mapstructure:"aws_secret_key"`
	AwsBaseEndpoint string `mapstructure:"aws_base_endpoint"`
	Region          string `mapstructure:"region"`
	BucketName      string `mapstructure:"bucket_name"`
	KeyPrefix       string `mapstructure:"key_prefix"`
}

type KafkaConfig struct {
	Producer *ProducerConfig `mapstructure:"producer"`
	Consumer *ConsumerConfig `mapstructure:"consumer"`
}

type ProducerConfig struct {
	Addr           string        `mapstructure:"addr"`
	WriteTopicName string        `mapstructure:"write_topic_name"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	BatchSize      int           `mapstructure:"batch_size"`
	BatchTimeout   time.Duration `mapstructure:"batch_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequiredAsks   int           `mapstructure:"required_acks"`
	Async          bool          `mapstructure:"async"`
}

type ConsumerConfig struct {
	ReadTopicName    string        `mapstructure:"read_topic_name"`
	Brokers          string        `mapstructure:"brokers"`
	GroupID          string        `mapstructure:"group_id"`
	MaxWait          time.Duration `mapstructure:"max_wait"`
	ReadBatchTimeout time.Duration `mapstructure:"read_batch_timeout"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
}

// MustLoad reads config.yaml from the working directory (or cfgFile when
// set), applies env overrides and defaults, and exits on failure.
func MustLoad(cfgFile string) *Config {
	setDefaults()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(path.Join("."))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		slog.Error("can't initialize config file. Run 'resultfetch config init' to create one.",
			slog.String("err", err.Error()))
		os.Exit(1)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("error unmarshalling viper config.", slog.String("err", err.Error()))
		os.Exit(1)
	}

	return &cfg
}

// Validate rejects configurations that would make every fetch fail.
// It is called before any work is dispatched.
func (c *Config) Validate() error {
	p := c.PortalSettings
	if p == nil {
		return fmt.Errorf("portal section is required")
	}
	if p.URL == "" {
		return fmt.Errorf("portal url must not be empty")
	}
	if _, err := url.ParseRequestURI(p.URL); err != nil {
		return fmt.Errorf("portal url is not valid: %w", err)
	}
	if p.Mechanism != "http" && p.Mechanism != "browser" {
		return fmt.Errorf("portal mechanism must be 'http' or 'browser', got %q", p.Mechanism)
	}
	if p.PinInputID == "" || p.SemesterSelectID == "" || p.SubmitSelector == "" || p.ResultContainerID == "" {
		return fmt.Errorf("portal selectors (pin_input_id, semester_select_id, submit_selector, result_container_id) must not be empty")
	}
	if p.RequestTimeout <= 0 {
		return fmt.Errorf("portal request_timeout must be positive, got %s", p.RequestTimeout)
	}
	if len(p.Semesters) == 0 {
		return fmt.Errorf("portal semesters list must not be empty")
	}

	w := c.WorkerSettings
	if w == nil {
		return fmt.Errorf("worker section is required")
	}
	if w.MaxWorkers < 1 {
		return fmt.Errorf("worker max_workers must be at least 1, got %d", w.MaxWorkers)
	}
	if w.RetryAttempts < 0 {
		return fmt.Errorf("worker retry_attempts must not be negative, got %d", w.RetryAttempts)
	}
	if w.RetryAttempts > 0 && w.RetryDelay <= 0 {
		return fmt.Errorf("worker retry_delay must be positive when retries are enabled, got %s", w.RetryDelay)
	}
	if w.PinDigitBudget < 1 {
		return fmt.Errorf("worker pin_digit_budget must be at least 1, got %d", w.PinDigitBudget)
	}

	if r := c.ReportSettings; r != nil && r.TopPerformers < 0 {
		return fmt.Errorf("report top_performers must not be negative, got %d", r.TopPerformers)
	}
	if cc := c.CacheSettings; cc != nil && cc.Enabled {
		switch cc.Backend {
		case "memory":
		case "memcached":
			if cc.Servers == "" {
				return fmt.Errorf("cache servers must not be empty for the memcached backend")
			}
		default:
			return fmt.Errorf("cache backend must be 'memory' or 'memcached', got %q", cc.Backend)
		}
	}
	if h := c.HistorySettings; h != nil && h.Enabled && h.Path == "" {
		return fmt.Errorf("history path must not be empty when history is enabled")
	}
	if s := c.S3Settings; s != nil && s.Enabled {
		if s.BucketName == "" {
			return fmt.Errorf("s3 bucket_name must not be empty when upload is enabled")
		}
		if s.Region == "" {
			return fmt.Errorf("s3 region must not be empty when upload is enabled")
		}
	}
	if m := c.MetricsSettings; m != nil && m.Enabled && m.Port == "" {
		return fmt.Errorf("metrics port must not be empty when metrics are enabled")
	}

	return nil
}

// AllSettings returns the effective configuration as a nested map,
// defaults and env overrides included.
func AllSettings() map[string]any {
	return viper.AllSettings()
}

// Set persists a single key into the loaded config file.
func Set(key, value string) error {
	if !viper.IsSet(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	viper.Set(key, value)
	if err := viper.WriteConfig(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// WriteDefault writes the commented default config to path. It refuses to
// overwrite an existing file.
func WriteDefault(cfgPath string) error {
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("%s already exists", cfgPath)
	}
	if err := os.WriteFile(cfgPath, []byte(defaultYaml), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", cfgPath, err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("env", "dev")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_type", "text")
	viper.SetDefault("service_name", "resultfetch")
	viper.SetDefault("version", "1.0.0")

	viper.SetDefault("portal.url", "https://sbtet.ap.gov.in/APSBTET/gradeWiseResults.do")
	viper.SetDefault("portal.mechanism", "browser")
	viper.SetDefault("portal.pin_input_id", "hno")
	viper.SetDefault("portal.semester_select_id", "grade1")
	viper.SetDefault("portal.submit_selector", `//input[@value='Get Result']`)
	viper.SetDefault("portal.result_container_id", "printDiv")
	viper.SetDefault("portal.error_indicator", "No Records Found")
	viper.SetDefault("portal.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36")
	viper.SetDefault("portal.request_timeout", 15*time.Second)
	viper.SetDefault("portal.semesters", []string{"1YEAR", "2SEM", "3SEM", "4SEM", "5SEM", "6SEM", "7SEM"})

	viper.SetDefault("worker.max_workers", 5)
	viper.SetDefault("worker.retry_attempts", 2)
	viper.SetDefault("worker.retry_delay", 2*time.Second)
	viper.SetDefault("worker.pin_digit_budget", 6)

	viper.SetDefault("report.output_dir", "downloads")
	viper.SetDefault("report.excel", true)
	viper.SetDefault("report.pdf", true)
	viper.SetDefault("report.zip", false)
	viper.SetDefault("report.top_performers", 10)

	viper.SetDefault("cache.enabled", false)
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.servers", "localhost:11211")
	viper.SetDefault("cache.ttl_for_record", 24*time.Hour)

	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.path", "resultfetch.db")

	viper.SetDefault("s3.enabled", false)
	viper.SetDefault("s3.aws_access_key", "")
	viper.SetDefault("s3.aws_secret_key", "")
	viper.SetDefault("s3.aws_base_endpoint", "")
	viper.SetDefault("s3.region", "ap-south-1")
	viper.SetDefault("s3.bucket_name", "")
	viper.SetDefault("s3.key_prefix", "results")

	viper.SetDefault("kafka.consumer.read_topic_name", "fetch-tasks")
	viper.SetDefault("kafka.consumer.brokers", "localhost:9092")
	viper.SetDefault("kafka.consumer.group_id", "resultfetch-group")
	viper.SetDefault("kafka.consumer.max_wait", 3*time.Second)
	viper.SetDefault("kafka.consumer.read_batch_timeout", 5*time.Second)
	viper.SetDefault("kafka.producer.addr", "localhost:9092")
	viper.SetDefault("kafka.producer.write_topic_name", "fetch-results")
	viper.SetDefault("kafka.producer.max_attempts", 3)
	viper.SetDefault("kafka.producer.batch_size", 100)
	viper.SetDefault("kafka.producer.batch_timeout", 1*time.Second)
	viper.SetDefault("kafka.producer.read_timeout", 10*time.Second)
	viper.SetDefault("kafka.producer.write_timeout", 10*time.Second)
	viper.SetDefault("kafka.producer.required_acks", 1)
	viper.SetDefault("kafka.producer.async", false)

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.port", "9090")
}
