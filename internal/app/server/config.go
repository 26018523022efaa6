package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port      string
	JWTSecret string

	AwsRegion            string
	UsersTableName       string
	LiveGamesTableName   string
	GameHistoryTableName string

	TimerPeriod             time.Duration
	RematchWindow           time.Duration
	GraceDelay              time.Duration
	SuspensionSweepInterval time.Duration
}

func NewConfig() Config {
	var config Config

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs/server")
	viper.AddConfigPath(".")

	viper.SetDefault("Server.Port", "8080")
	viper.SetDefault("Server.TimerPeriod", "500ms")
	viper.SetDefault("Server.RematchWindow", "30s")
	viper.SetDefault("Server.GraceDelay", "500ms")
	viper.SetDefault("Server.SuspensionSweepInterval", "1m")
	viper.SetDefault("Storage.UsersTableName", "Users")
	viper.SetDefault("Storage.LiveGamesTableName", "LiveGames")
	viper.SetDefault("Storage.GameHistoryTableName", "GameHistory")

	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %s", err))
		}
	}

	config.Port = viper.GetString("Server.Port")
	config.JWTSecret = viper.GetString("JWT_SECRET")
	config.AwsRegion = viper.GetString("AWS_REGION")
	config.UsersTableName = viper.GetString("Storage.UsersTableName")
	config.LiveGamesTableName = viper.GetString("Storage.LiveGamesTableName")
	config.GameHistoryTableName = viper.GetString("Storage.GameHistoryTableName")
	config.TimerPeriod = viper.GetDuration("Server.TimerPeriod")
	config.RematchWindow = viper.GetDuration("Server.RematchWindow")
	config.GraceDelay = viper.GetDuration("Server.GraceDelay")
	config.SuspensionSweepInterval = viper.GetDuration("Server.SuspensionSweepInterval")

	return config
}
