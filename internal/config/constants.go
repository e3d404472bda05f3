// internal/config/constants.go
package config

// アプリケーション情報
const (
	AppName    = "magyar_vizsga_trainer"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort    = ":8080"
	DefaultLogLevel      = "info"
	DefaultTokenTTLHours = 24

	// 採点・出題のデフォルト。試験の配点(30点満点・16点合格)と
	// 2問/分野は実際の試験形式に合わせた値なので変更には注意。
	DefaultMatchThreshold       = 0.75
	DefaultHintPenalty          = 0.8
	DefaultSessionLimit         = 20
	DefaultExamPerTopic         = 2
	DefaultExamDurationMinutes  = 60
	DefaultExamTotalPoints      = 30.0
	DefaultExamPassPoints       = 16.0
	DefaultLeechThreshold       = 5
	DefaultForecastDays         = 7
	DefaultWeakAccuracyCutoff   = 0.6
	DefaultVocabMasteryAccuracy = 0.8
)
