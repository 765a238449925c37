package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/totpgate/internal/flagx"
	"github.com/dmitrijs2005/totpgate/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Every field is
// optional: only keys present in the file override the current values.
type FileConfig struct {
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	MetricsAddr                  *string         `json:"metrics_addr" yaml:"metrics_addr"`
	DatabaseDSN                  *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    *string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	LogLevel                     *string         `json:"log_level" yaml:"log_level"`
	RedisURL                     *string         `json:"redis_url" yaml:"redis_url"`
	VerifyAttemptLimit           *int            `json:"verify_attempt_limit" yaml:"verify_attempt_limit"`
	VerifyAttemptWindow          *timex.Duration `json:"verify_attempt_window" yaml:"verify_attempt_window"`
	ToleranceWindows             *int            `json:"tolerance_windows" yaml:"tolerance_windows"`
	S3RootUser                   *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword               *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                     *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                     *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint               *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	RetentionPeriod              *timex.Duration `json:"retention_period" yaml:"retention_period"`
}

// parseFile overlays config with the file named by -c/-config (or by the
// TOTPGATE_CONFIG environment variable). Files ending in .yaml or .yml are
// decoded as YAML, everything else as JSON. A file that cannot be read or
// decoded is a startup error and panics.
func parseFile(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args, ConfigEnvVar)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&c.MetricsAddr, fc.MetricsAddr)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setString(&c.SecretKey, fc.SecretKey)
	setDuration(&c.AccessTokenValidityDuration, fc.AccessTokenValidityDuration)
	setDuration(&c.RefreshTokenValidityDuration, fc.RefreshTokenValidityDuration)
	setString(&c.LogLevel, fc.LogLevel)
	setString(&c.RedisURL, fc.RedisURL)
	setInt(&c.VerifyAttemptLimit, fc.VerifyAttemptLimit)
	setDuration(&c.VerifyAttemptWindow, fc.VerifyAttemptWindow)
	setInt(&c.ToleranceWindows, fc.ToleranceWindows)
	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setDuration(&c.RetentionPeriod, fc.RetentionPeriod)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *timex.Duration) {
	if v != nil {
		*dst = v.Duration
	}
}
