package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig is the on-disk layout of the optional JSON config
// file. Durations accept "30s"-style strings or nanosecond numbers.
type StructuredJSONConfig struct {
	App struct {
		UID             string `json:"uid"`
		EncryptPassword string `json:"encrypt_password"`
		MaxItemLength   int    `json:"max_item_length"`
		VaultKey        string `json:"vault_key"`
		LogPath         string `json:"log_path"`
	} `json:"app,omitempty"`

	License struct {
		IsLicensed      bool   `json:"is_licensed"`
		MaxItemStorage  int    `json:"max_item_storage"`
		TotalConnection int    `json:"total_connection"`
		Strategy        string `json:"strategy"`
	} `json:"license,omitempty"`

	Remote struct {
		Backend        string   `json:"backend"`
		Endpoint       string   `json:"endpoint"`
		AuthRequired   bool     `json:"auth_required"`
		RequestTimeout Duration `json:"request_timeout"`
		RedisAddr      string   `json:"redis_addr"`
		RedisDB        int      `json:"redis_db"`
		RedisPrefix    string   `json:"redis_prefix"`
		PostgresDSN    string   `json:"postgres_dsn"`
	} `json:"remote,omitempty"`

	Auth struct {
		ClientID     string `json:"client_id"`
		ClientSecret string `json:"client_secret"`
		TokenURL     string `json:"token_url"`
	} `json:"auth,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Images struct {
			Bucket       string `json:"bucket"`
			Region       string `json:"region"`
			Endpoint     string `json:"endpoint"`
			Prefix       string `json:"prefix"`
			UsePathStyle bool   `json:"use_path_style"`
		} `json:"images,omitempty"`
	} `json:"storage,omitempty"`

	Workers struct {
		ClipboardPollInterval   Duration `json:"clipboard_poll_interval"`
		SaveInterval            Duration `json:"save_interval"`
		CredentialCheckInterval Duration `json:"credential_check_interval"`
		ReconnectInterval       Duration `json:"reconnect_interval"`
	} `json:"workers,omitempty"`

	Server struct {
		StatusAddress string `json:"status_address"`
	} `json:"server,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			UID:             jsonCfg.App.UID,
			EncryptPassword: jsonCfg.App.EncryptPassword,
			MaxItemLength:   jsonCfg.App.MaxItemLength,
			VaultKey:        jsonCfg.App.VaultKey,
			LogPath:         jsonCfg.App.LogPath,
		},
		License: License{
			IsLicensed:      jsonCfg.License.IsLicensed,
			MaxItemStorage:  jsonCfg.License.MaxItemStorage,
			TotalConnection: jsonCfg.License.TotalConnection,
			Strategy:        jsonCfg.License.Strategy,
		},
		Remote: Remote{
			Backend:        jsonCfg.Remote.Backend,
			Endpoint:       jsonCfg.Remote.Endpoint,
			AuthRequired:   jsonCfg.Remote.AuthRequired,
			RequestTimeout: time.Duration(jsonCfg.Remote.RequestTimeout),
			RedisAddr:      jsonCfg.Remote.RedisAddr,
			RedisDB:        jsonCfg.Remote.RedisDB,
			RedisPrefix:    jsonCfg.Remote.RedisPrefix,
			PostgresDSN:    jsonCfg.Remote.PostgresDSN,
		},
		Auth: Auth{
			ClientID:     jsonCfg.Auth.ClientID,
			ClientSecret: jsonCfg.Auth.ClientSecret,
			TokenURL:     jsonCfg.Auth.TokenURL,
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Images: Images{
				Bucket:       jsonCfg.Storage.Images.Bucket,
				Region:       jsonCfg.Storage.Images.Region,
				Endpoint:     jsonCfg.Storage.Images.Endpoint,
				Prefix:       jsonCfg.Storage.Images.Prefix,
				UsePathStyle: jsonCfg.Storage.Images.UsePathStyle,
			},
		},
		Workers: Workers{
			ClipboardPollInterval:   time.Duration(jsonCfg.Workers.ClipboardPollInterval),
			SaveInterval:            time.Duration(jsonCfg.Workers.SaveInterval),
			CredentialCheckInterval: time.Duration(jsonCfg.Workers.CredentialCheckInterval),
			ReconnectInterval:       time.Duration(jsonCfg.Workers.ReconnectInterval),
		},
		Server: Server{
			StatusAddress: jsonCfg.Server.StatusAddress,
		},
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
