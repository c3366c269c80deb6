package config

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sessiond/internal/platform/web"
)

const minSecretLen = 16

var configFileName string
var configFilePath string

// fileSecret holds the secret as written in the config file, before any
// environment override. Saves write this back, never the effective one.
var fileSecret string

func SetConfig(goEnv string) {
	log.Info().Msgf("Loading configuration for environment: %s", goEnv)

	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")

	if goEnv == "production" {
		configFileName = "config.prod"
	} else {
		configFileName = "config.dev"
	}
	viper.SetConfigName(configFileName)

	err := viper.ReadInConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read config file")
	}

	configFilePath = viper.ConfigFileUsed()
	log.Info().Msgf("Config file loaded: %s", configFilePath)

	err = viper.Unmarshal(&Conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to unmarshal config")
	}

	// 환경변수로 시크릿을 주입할 수 있음 (파일보다 우선)
	fileSecret = Conf.Vault.Secret
	if env := os.Getenv("SESSIOND_VAULT_SECRET"); env != "" {
		Conf.Vault.Secret = env
	}

	applyDefaults(&Conf)

	if err := Validate(&Conf); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
}

func applyDefaults(c *Config) {
	if c.Server.Port == "" {
		c.Server.Port = "4780"
	}
	if c.Vault.Path == "" {
		c.Vault.Path = "data/vault.db"
	}
	if c.Session.ExpiringSoonThreshold <= 0 {
		c.Session.ExpiringSoonThreshold = 2 * time.Minute
	}
	if c.Session.LogoutGrace <= 0 {
		c.Session.LogoutGrace = 30 * time.Second
	}
	if c.Session.MaxSessionAge <= 0 {
		c.Session.MaxSessionAge = 12 * time.Hour
	}
	if c.Session.RequestTimeout <= 0 {
		c.Session.RequestTimeout = 15 * time.Second
	}
}

// Validate enforces startup preconditions. The vault secret has no
// fallback: running without one would silently store credentials with a
// known key.
func Validate(c *Config) error {
	if c.Vault.Secret == "" {
		return ErrMissingSecret
	}
	if len(c.Vault.Secret) < minSecretLen {
		return ErrWeakSecret
	}
	if c.Session.RefreshURL == "" {
		return ErrMissingRefreshURL
	}
	return nil
}

// SaveConfig는 설정을 YAML 파일에 저장합니다
func SaveConfig() error {
	saved := Conf
	saved.Vault.Secret = fileSecret
	data, err := yaml.Marshal(&saved)
	if err != nil {
		return err
	}

	err = os.WriteFile(configFilePath, data, 0600)
	if err != nil {
		return err
	}

	log.Info().Msgf("Configuration saved to %s", configFilePath)
	return nil
}

// Handler는 config API 핸들러입니다
type Handler struct{}

type PublicConfigResponse struct {
	Server  Server  `json:"server"`
	Session Session `json:"session"`
}

type UpdateConfigRequest struct {
	Server  Server  `json:"server"`
	Session Session `json:"session"`
}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/config", web.Handler(h.GetConfig))
	mux.Handle("PUT /api/config", web.Handler(h.UpdateConfig))
}

// GetConfig returns the non-sensitive part of the configuration. The vault
// secret never leaves the process.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) *web.Error {
	w.Header().Set("Content-Type", "application/json")
	response := PublicConfigResponse{
		Server:  Conf.Server,
		Session: Conf.Session,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		return &web.Error{Err: err, Code: http.StatusInternalServerError, Message: "Failed to encode config"}
	}
	return nil
}

// UpdateConfig는 설정을 업데이트합니다
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) *web.Error {
	var req UpdateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return &web.Error{Err: err, Code: http.StatusBadRequest, Message: "Invalid config format"}
	}

	if req.Server.Port == "" {
		return &web.Error{Code: http.StatusBadRequest, Message: "server.port is required"}
	}
	if req.Session.RefreshURL == "" {
		return &web.Error{Code: http.StatusBadRequest, Message: "session.refresh_url is required"}
	}

	// 설정 업데이트 (시크릿을 포함하는 vault 섹션은 API로 변경하지 않음)
	Conf.Server = req.Server
	Conf.Session = req.Session
	applyDefaults(&Conf)

	// 파일에 저장
	if err := SaveConfig(); err != nil {
		return &web.Error{Err: err, Code: http.StatusInternalServerError, Message: "Failed to save config"}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Configuration updated successfully",
	})
	return nil
}
