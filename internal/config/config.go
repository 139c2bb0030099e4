package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Config 保存应用程序配置。
type Config struct {
	App   AppConfig   `json:"app"`
	MySQL MySQLConfig `json:"mysql"`
	Token TokenConfig `json:"token"`
	Email EmailConfig `json:"email"`
}

// AppConfig 应用程序基础配置。
type AppConfig struct {
	Env         string `json:"env"`          // 运行环境: local / prod
	LogLevel    string `json:"log_level"`    // 日志级别: debug / info / warn / error
	HTTPAddr    string `json:"http_addr"`    // API 服务监听地址
	RedirectURL string `json:"redirect_url"` // 邮箱验证链接前缀（token 拼接在末尾）
}

// MySQLConfig MySQL 数据库配置。
type MySQLConfig struct {
	DSN string `json:"dsn"` // 数据库连接字符串
}

// TokenConfig 令牌签名配置。
//
// 三类令牌各自使用独立密钥与有效期：
// access / refresh 用于登录会话，register 用于邮箱验证链接。
type TokenConfig struct {
	AccessSecret   string        `json:"access_secret"`   // access token 签名密钥
	RefreshSecret  string        `json:"refresh_secret"`  // refresh token 签名密钥
	RegisterSecret string        `json:"register_secret"` // 邮箱验证 token 签名密钥
	AccessTTL      time.Duration `json:"access_ttl"`      // access token 有效期（如 "30s"）
	RefreshTTL     time.Duration `json:"refresh_ttl"`     // refresh token 有效期（如 "720h"）
	RegisterTTL    time.Duration `json:"register_ttl"`    // 邮箱验证 token 有效期（如 "60s"）
}

// EmailConfig 邮件通知配置。
type EmailConfig struct {
	SMTPHost  string `json:"smtp_host"`
	SMTPPort  int    `json:"smtp_port"`
	SMTPUser  string `json:"smtp_user"`
	SMTPPass  string `json:"smtp_pass"`
	FromEmail string `json:"from_email"`
}

// Load 从 JSON 文件加载配置。
//
// 它会尝试读取 configs/config.json 文件，如果不存在则使用默认值。
// 环境变量始终优先覆盖文件中的配置。
//
// 参数:
//
//	configPath: 配置文件路径（如果为空则使用默认路径 "configs/config.json")
//
// 返回值:
//
//	*Config: 加载完成的配置对象
//	error: 加载失败返回错误
func Load(configPath ...string) (*Config, error) {
	path := "configs/config.json"
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
	}

	// 如果配置文件不存在，使用默认配置
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := getDefaultConfig()
		applyEnvOverrides(cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	// 应用默认值（对于未设置的字段）
	applyDefaults(cfg)

	// 环境变量优先覆盖配置
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadOrDefault 加载配置，如果失败则返回默认配置（不报错）。
func LoadOrDefault(configPath ...string) *Config {
	cfg, err := Load(configPath...)
	if err != nil {
		fallback := getDefaultConfig()
		applyEnvOverrides(fallback)
		return fallback
	}
	return cfg
}

// Save 保存配置到 JSON 文件。
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// getDefaultConfig 返回默认配置。
//
// 令牌有效期的默认值（30s / 720h / 60s）仅为开发用途，
// 生产环境应通过配置文件或环境变量显式设置。
func getDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:         "local",
			LogLevel:    "info",
			HTTPAddr:    ":8081",
			RedirectURL: "http://localhost:8081/api/v1/auth/email-verification/",
		},
		MySQL: MySQLConfig{
			DSN: "root:password@tcp(localhost:3306)/accounthub?parseTime=true&loc=Local",
		},
		Token: TokenConfig{
			AccessSecret:   "dev_access_secret_change_me",
			RefreshSecret:  "dev_refresh_secret_change_me",
			RegisterSecret: "dev_register_secret_change_me",
			AccessTTL:      30 * time.Second,
			RefreshTTL:     720 * time.Hour,
			RegisterTTL:    60 * time.Second,
		},
		Email: EmailConfig{
			SMTPHost:  "smtp.gmail.com",
			SMTPPort:  587,
			SMTPUser:  "",
			SMTPPass:  "",
			FromEmail: "",
		},
	}
}

// applyDefaults 对未设置的字段应用默认值。
func applyDefaults(cfg *Config) {
	defaults := getDefaultConfig()

	if cfg.App.Env == "" {
		cfg.App.Env = defaults.App.Env
	}
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = defaults.App.LogLevel
	}
	if cfg.App.HTTPAddr == "" {
		cfg.App.HTTPAddr = defaults.App.HTTPAddr
	}
	if cfg.App.RedirectURL == "" {
		cfg.App.RedirectURL = defaults.App.RedirectURL
	}
	if cfg.MySQL.DSN == "" {
		cfg.MySQL.DSN = defaults.MySQL.DSN
	}
	if cfg.Token.AccessSecret == "" {
		cfg.Token.AccessSecret = defaults.Token.AccessSecret
	}
	if cfg.Token.RefreshSecret == "" {
		cfg.Token.RefreshSecret = defaults.Token.RefreshSecret
	}
	if cfg.Token.RegisterSecret == "" {
		cfg.Token.RegisterSecret = defaults.Token.RegisterSecret
	}
	if cfg.Token.AccessTTL == 0 {
		cfg.Token.AccessTTL = defaults.Token.AccessTTL
	}
	if cfg.Token.RefreshTTL == 0 {
		cfg.Token.RefreshTTL = defaults.Token.RefreshTTL
	}
	if cfg.Token.RegisterTTL == 0 {
		cfg.Token.RegisterTTL = defaults.Token.RegisterTTL
	}
	if cfg.Email.SMTPPort == 0 {
		cfg.Email.SMTPPort = defaults.Email.SMTPPort
	}
}

func applyEnvOverrides(cfg *Config) {
	viper.AutomaticEnv()

	_ = viper.BindEnv("db_dsn", "DB_DSN")
	_ = viper.BindEnv("access_token_secret", "ACCESS_TOKEN_SECRET")
	_ = viper.BindEnv("refresh_token_secret", "REFRESH_TOKEN_SECRET")
	_ = viper.BindEnv("register_token_secret", "REGISTER_TOKEN_SECRET")
	_ = viper.BindEnv("smtp_pass", "SMTP_PASS")

	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.App.Env = v
	}
	if v := os.Getenv("APP_LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("APP_HTTP_ADDR"); v != "" {
		cfg.App.HTTPAddr = v
	}
	if v := os.Getenv("APP_REDIRECT_URL"); v != "" {
		cfg.App.RedirectURL = v
	}

	if v := viper.GetString("db_dsn"); v != "" {
		cfg.MySQL.DSN = v
	} else if hasAnyEnv("DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME") {
		parsed := parseMySQLDSN(cfg.MySQL.DSN)
		if v := os.Getenv("DB_HOST"); v != "" {
			port := getenvDefault("DB_PORT", "3306")
			parsed.Addr = v + ":" + port
		}
		if v := os.Getenv("DB_USER"); v != "" {
			parsed.User = v
		}
		if v := os.Getenv("DB_PASSWORD"); v != "" {
			parsed.Passwd = v
		}
		if v := os.Getenv("DB_NAME"); v != "" {
			parsed.DBName = v
		}
		cfg.MySQL.DSN = parsed.FormatDSN()
	}

	if v := viper.GetString("access_token_secret"); v != "" {
		cfg.Token.AccessSecret = v
	}
	if v := viper.GetString("refresh_token_secret"); v != "" {
		cfg.Token.RefreshSecret = v
	}
	if v := viper.GetString("register_token_secret"); v != "" {
		cfg.Token.RegisterSecret = v
	}
	if v := os.Getenv("ACCESS_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Token.AccessTTL = d
		}
	}
	if v := os.Getenv("REFRESH_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Token.RefreshTTL = d
		}
	}
	if v := os.Getenv("REGISTER_TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Token.RegisterTTL = d
		}
	}

	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Email.SMTPPort = i
		}
	}
	if v := os.Getenv("SMTP_USER"); v != "" {
		cfg.Email.SMTPUser = v
	}
	if v := viper.GetString("smtp_pass"); v != "" {
		cfg.Email.SMTPPass = v
	}
	if v := os.Getenv("SMTP_FROM"); v != "" {
		cfg.Email.FromEmail = v
	}
}

func hasAnyEnv(keys ...string) bool {
	for _, key := range keys {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

func getenvDefault(envKey, defaultValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return defaultValue
}

func parseMySQLDSN(dsn string) *mysql.Config {
	fallback := &mysql.Config{
		User:   "root",
		Passwd: "",
		Net:    "tcp",
		Addr:   "localhost:3306",
		DBName: "accounthub",
		Params: map[string]string{
			"parseTime": "true",
			"loc":       "Local",
		},
	}
	if dsn == "" {
		return fallback
	}
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return fallback
	}
	return parsed
}

// UnmarshalJSON 自定义 JSON 解析，支持时间 Duration 字符串。
func (t *TokenConfig) UnmarshalJSON(data []byte) error {
	type Alias TokenConfig
	aux := &struct {
		AccessTTL   string `json:"access_ttl"`
		RefreshTTL  string `json:"refresh_ttl"`
		RegisterTTL string `json:"register_ttl"`
		*Alias
	}{
		Alias: (*Alias)(t),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.AccessTTL != "" {
		duration, err := time.ParseDuration(aux.AccessTTL)
		if err != nil {
			return fmt.Errorf("invalid access_ttl format: %w", err)
		}
		t.AccessTTL = duration
	}
	if aux.RefreshTTL != "" {
		duration, err := time.ParseDuration(aux.RefreshTTL)
		if err != nil {
			return fmt.Errorf("invalid refresh_ttl format: %w", err)
		}
		t.RefreshTTL = duration
	}
	if aux.RegisterTTL != "" {
		duration, err := time.ParseDuration(aux.RegisterTTL)
		if err != nil {
			return fmt.Errorf("invalid register_ttl format: %w", err)
		}
		t.RegisterTTL = duration
	}

	return nil
}

// MarshalJSON 自定义 JSON 序列化，将 Duration 转为字符串。
func (t TokenConfig) MarshalJSON() ([]byte, error) {
	type Alias TokenConfig
	return json.Marshal(&struct {
		AccessTTL   string `json:"access_ttl"`
		RefreshTTL  string `json:"refresh_ttl"`
		RegisterTTL string `json:"register_ttl"`
		*Alias
	}{
		AccessTTL:   t.AccessTTL.String(),
		RefreshTTL:  t.RefreshTTL.String(),
		RegisterTTL: t.RegisterTTL.String(),
		Alias:       (*Alias)(&t),
	})
}
