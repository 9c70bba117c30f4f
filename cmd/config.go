package main

import "time"

type Config struct {
	Host string `env:"HOST,required=true"`
	Port int    `env:"PORT,required=true"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`

	BufferSize       int           `env:"BUFFER_SIZE,required=true"`
	SendBufferSize   int           `env:"SEND_BUFFER_SIZE,required=true"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT,required=true"`
	PongTimeout      time.Duration `env:"PONG_TIMEOUT,required=true"`
	PingInterval     time.Duration `env:"PING_INTERVAL,required=true"`
	MaxMessageSize   int64         `env:"MAX_MESSAGE_SIZE,required=true"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT,required=true"`

	BadgerFilepath     string `env:"BADGER_FILEPATH,required=true"`
	LimitNotifications *int   `env:"LIMIT_NOTIFICATIONS"`

	DirectoryBaseURL string        `env:"DIRECTORY_BASE_URL,required=true"`
	DirectoryTimeout time.Duration `env:"DIRECTORY_TIMEOUT,required=true"`

	LogLevel        string        `env:"LOG_LEVEL,required=true"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,required=true"`
	MonitorInterval time.Duration `env:"MONITOR_INTERVAL,required=true"`
	EnableDebug     bool          `env:"ENABLE_DEBUG"`
}
