package config

import "time"

var Conf Config

type Config struct {
	Server  Server  `mapstructure:"server" json:"server" yaml:"server"`
	Vault   Vault   `mapstructure:"vault" json:"vault" yaml:"vault"`
	Session Session `mapstructure:"session" json:"session" yaml:"session"`
}

type Server struct {
	Port string `mapstructure:"port" json:"port" yaml:"port"`
}

type Vault struct {
	Path   string `mapstructure:"path" json:"path" yaml:"path"`
	Secret string `mapstructure:"secret" json:"-" yaml:"secret"`
}

type Session struct {
	RefreshURL            string        `mapstructure:"refresh_url" json:"refreshUrl" yaml:"refresh_url"`
	ExpiringSoonThreshold time.Duration `mapstructure:"expiring_soon_threshold" json:"expiringSoonThreshold" yaml:"expiring_soon_threshold"`
	LogoutGrace           time.Duration `mapstructure:"logout_grace" json:"logoutGrace" yaml:"logout_grace"`
	MaxSessionAge         time.Duration `mapstructure:"max_session_age" json:"maxSessionAge" yaml:"max_session_age"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout" json:"requestTimeout" yaml:"request_timeout"`
}
