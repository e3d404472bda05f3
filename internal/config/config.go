// internal/config/config.go
package config

import (
	"log"

	"github.com/spf13/viper"
)

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	TokenTTLHours int    `mapstructure:"token_ttl_hours"`
}

// AppConfig はクイズエンジン側の調整値。
// 採点しきい値や試験の配点はユーザーに見える挙動を決めるので設定化している。
type AppConfig struct {
	MatchThreshold       float64 `mapstructure:"match_threshold"`
	HintPenalty          float64 `mapstructure:"hint_penalty"`
	SessionLimit         int     `mapstructure:"session_limit"`
	ExamPerTopic         int     `mapstructure:"exam_per_topic"`
	ExamDurationMinutes  int     `mapstructure:"exam_duration_minutes"`
	ExamTotalPoints      float64 `mapstructure:"exam_total_points"`
	ExamPassPoints       float64 `mapstructure:"exam_pass_points"`
	LeechThreshold       int     `mapstructure:"leech_threshold"`
	ForecastDays         int     `mapstructure:"forecast_days"`
	WeakAccuracyCutoff   float64 `mapstructure:"weak_accuracy_cutoff"`
	VocabMasteryAccuracy float64 `mapstructure:"vocab_mastery_accuracy"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Auth     AuthConfig     `mapstructure:"auth"`
	App      AppConfig      `mapstructure:"app"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

var Cfg Config

func LoadConfig(path string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(path)
	viper.AddConfigPath(".")

	// 環境変数での上書き (例: APP_DATABASE_URL, APP_AUTH_SECRET_KEY)
	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()
	viper.BindEnv("database.url", "APP_DATABASE_URL")
	viper.BindEnv("auth.secret_key", "APP_AUTH_SECRET_KEY")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Warning: Config file not found. Using default settings or environment variables if available.")
		} else {
			log.Printf("Error reading config file: %s\n", err)
			return err
		}
	}

	if err := viper.Unmarshal(&Cfg); err != nil {
		log.Printf("Error unmarshalling config: %s\n", err)
		return err
	}

	applyDefaults(&Cfg)

	log.Println("Config loaded successfully")
	log.Printf("Server Port: %s", Cfg.Server.Port)
	log.Printf("Session Limit: %d", Cfg.App.SessionLimit)

	return nil
}

// applyDefaults は未設定の項目にデフォルト値を適用します
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Auth.TokenTTLHours <= 0 {
		cfg.Auth.TokenTTLHours = DefaultTokenTTLHours
	}
	if cfg.App.MatchThreshold <= 0 || cfg.App.MatchThreshold > 1 {
		cfg.App.MatchThreshold = DefaultMatchThreshold
	}
	if cfg.App.HintPenalty <= 0 || cfg.App.HintPenalty > 1 {
		cfg.App.HintPenalty = DefaultHintPenalty
	}
	if cfg.App.SessionLimit <= 0 {
		cfg.App.SessionLimit = DefaultSessionLimit
	}
	if cfg.App.ExamPerTopic <= 0 {
		cfg.App.ExamPerTopic = DefaultExamPerTopic
	}
	if cfg.App.ExamDurationMinutes <= 0 {
		cfg.App.ExamDurationMinutes = DefaultExamDurationMinutes
	}
	if cfg.App.ExamTotalPoints <= 0 {
		cfg.App.ExamTotalPoints = DefaultExamTotalPoints
	}
	if cfg.App.ExamPassPoints <= 0 {
		cfg.App.ExamPassPoints = DefaultExamPassPoints
	}
	if cfg.App.LeechThreshold <= 0 {
		cfg.App.LeechThreshold = DefaultLeechThreshold
	}
	if cfg.App.ForecastDays <= 0 {
		cfg.App.ForecastDays = DefaultForecastDays
	}
	if cfg.App.WeakAccuracyCutoff <= 0 || cfg.App.WeakAccuracyCutoff > 1 {
		cfg.App.WeakAccuracyCutoff = DefaultWeakAccuracyCutoff
	}
	if cfg.App.VocabMasteryAccuracy <= 0 || cfg.App.VocabMasteryAccuracy > 1 {
		cfg.App.VocabMasteryAccuracy = DefaultVocabMasteryAccuracy
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
	if len(cfg.CORS.AllowedMethods) == 0 {
		cfg.CORS.AllowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	if len(cfg.CORS.AllowedHeaders) == 0 {
		cfg.CORS.AllowedHeaders = []string{"Accept", "Authorization", "Content-Type"}
	}
	if cfg.CORS.MaxAge <= 0 {
		cfg.CORS.MaxAge = 300
	}
	if cfg.Database.URL == "" {
		log.Println("Warning: Database URL is not set in config.")
	}
	if cfg.Auth.SecretKey == "" {
		log.Println("Warning: Auth secret key is not set in config.")
	}
}
