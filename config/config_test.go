package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Env:      "test",
		LogLevel: "info",
		LogType:  "text",
		PortalSettings: &PortalConfig{
			URL:               "https://results.example.edu/gradeWiseResults.do",
			Mechanism:         "http",
			PinInputID:        "hno",
			SemesterSelectID:  "grade1",
			SubmitSelector:    `//input[@value='Get Result']`,
			ResultContainerID: "printDiv",
			ErrorIndicator:    "No Records Found",
			RequestTimeout:    15 * time.Second,
			Semesters:         []string{"1YEAR", "3SEM"},
		},
		WorkerSettings: &WorkerConfig{
			MaxWorkers:     5,
			RetryAttempts:  2,
			RetryDelay:     2 * time.Second,
			PinDigitBudget: 6,
		},
		ReportSettings:  &ReportConfig{OutputDir: "downloads", Excel: true, Pdf: true, TopPerformers: 10},
		CacheSettings:   &CacheConfig{},
		HistorySettings: &HistoryConfig{Enabled: true, Path: "resultfetch.db"},
		S3Settings:      &S3Config{},
		MetricsSettings: &MetricsConfig{},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing portal section", func(c *Config) { c.PortalSettings = nil }, "portal section"},
		{"empty url", func(c *Config) { c.PortalSettings.URL = "" }, "url must not be empty"},
		{"invalid url", func(c *Config) { c.PortalSettings.URL = "not a url" }, "not valid"},
		{"bad mechanism", func(c *Config) { c.PortalSettings.Mechanism = "carrier-pigeon" }, "mechanism"},
		{"missing selector", func(c *Config) { c.PortalSettings.PinInputID = "" }, "selectors"},
		{"zero timeout", func(c *Config) { c.PortalSettings.RequestTimeout = 0 }, "request_timeout"},
		{"no semesters", func(c *Config) { c.PortalSettings.Semesters = nil }, "semesters"},
		{"missing worker section", func(c *Config) { c.WorkerSettings = nil }, "worker section"},
		{"zero workers", func(c *Config) { c.WorkerSettings.MaxWorkers = 0 }, "max_workers"},
		{"negative retries", func(c *Config) { c.WorkerSettings.RetryAttempts = -1 }, "retry_attempts"},
		{"retries without delay", func(c *Config) { c.WorkerSettings.RetryDelay = 0 }, "retry_delay"},
		{"zero digit budget", func(c *Config) { c.WorkerSettings.PinDigitBudget = 0 }, "pin_digit_budget"},
		{"negative top performers", func(c *Config) { c.ReportSettings.TopPerformers = -1 }, "top_performers"},
		{"memcached without servers", func(c *Config) {
			c.CacheSettings = &CacheConfig{Enabled: true, Backend: "memcached"}
		}, "cache servers"},
		{"unknown cache backend", func(c *Config) {
			c.CacheSettings = &CacheConfig{Enabled: true, Backend: "redis"}
		}, "cache backend"},
		{"history without path", func(c *Config) {
			c.HistorySettings = &HistoryConfig{Enabled: true}
		}, "history path"},
		{"upload without bucket", func(c *Config) {
			c.S3Settings = &S3Config{Enabled: true, Region: "ap-south-1"}
		}, "bucket_name"},
		{"upload without region", func(c *Config) {
			c.S3Settings = &S3Config{Enabled: true, BucketName: "results"}
		}, "region"},
		{"metrics without port", func(c *Config) {
			c.MetricsSettings = &MetricsConfig{Enabled: true}
		}, "metrics port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}
