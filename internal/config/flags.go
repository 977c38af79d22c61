package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags from args (normally
// os.Args[1:]). Unset flags leave their fields zero so that they do not
// override values from other sources.
//
// Flags:
//
//	-uid profile identifier
//	-p clip encryption passphrase
//	-max-item-length longest accepted clip text
//	-vault-key local credential vault key
//	-log-path log directory
//	-licensed license flag
//	-max-items clip capacity
//	-total-connection allowed devices
//	-license-strategy none|standard|premium|deluxe
//	-backend firebase|redis|postgres
//	-e firebase endpoint
//	-auth-required require an access token
//	-request-timeout remote request timeout (e.g., "30s")
//	-redis-addr redis address host:port
//	-redis-db redis database number
//	-redis-prefix redis key prefix
//	-pg-dsn postgres DSN
//	-client-id OAuth2 client id
//	-client-secret OAuth2 client secret
//	-token-url OAuth2 token endpoint
//	-d local database DSN
//	-images-bucket / -images-region / -images-endpoint / -images-prefix
//	-clipboard-interval / -save-interval / -credential-interval
//	-a status server address in format [host]:[port]
//	-c/-config json file path with configs
func ParseFlags(args []string) (*StructuredConfig, error) {
	cfg := &StructuredConfig{}
	var statusAddress NetAddress

	fs := flag.NewFlagSet("clip-keeper", flag.ContinueOnError)

	fs.StringVar(&cfg.App.UID, "uid", "", "Profile identifier")
	fs.StringVar(&cfg.App.EncryptPassword, "p", "", "Clip encryption passphrase")
	fs.IntVar(&cfg.App.MaxItemLength, "max-item-length", 0, "Longest accepted clip text")
	fs.StringVar(&cfg.App.VaultKey, "vault-key", "", "Local credential vault key")
	fs.StringVar(&cfg.App.LogPath, "log-path", "", "Log directory")

	fs.BoolVar(&cfg.License.IsLicensed, "licensed", false, "Licensed installation")
	fs.IntVar(&cfg.License.MaxItemStorage, "max-items", 0, "Clip capacity")
	fs.IntVar(&cfg.License.TotalConnection, "total-connection", 0, "Allowed devices")
	fs.StringVar(&cfg.License.Strategy, "license-strategy", "", "License tier")

	fs.StringVar(&cfg.Remote.Backend, "backend", "", "Remote backend: firebase, redis or postgres")
	fs.StringVar(&cfg.Remote.Endpoint, "e", "", "Firebase database URL")
	fs.BoolVar(&cfg.Remote.AuthRequired, "auth-required", false, "Require an access token")
	fs.DurationVar(&cfg.Remote.RequestTimeout, "request-timeout", 0, "Remote request timeout (e.g., 30s, 1m)")
	fs.StringVar(&cfg.Remote.RedisAddr, "redis-addr", "", "Redis address host:port")
	fs.IntVar(&cfg.Remote.RedisDB, "redis-db", 0, "Redis database number")
	fs.StringVar(&cfg.Remote.RedisPrefix, "redis-prefix", "", "Redis key prefix")
	fs.StringVar(&cfg.Remote.PostgresDSN, "pg-dsn", "", "Postgres DSN")

	fs.StringVar(&cfg.Auth.ClientID, "client-id", "", "OAuth2 client id")
	fs.StringVar(&cfg.Auth.ClientSecret, "client-secret", "", "OAuth2 client secret")
	fs.StringVar(&cfg.Auth.TokenURL, "token-url", "", "OAuth2 token endpoint")

	fs.StringVar(&cfg.Storage.DB.DSN, "d", "", "Local database DSN")
	fs.StringVar(&cfg.Storage.Images.Bucket, "images-bucket", "", "S3 bucket for image clips")
	fs.StringVar(&cfg.Storage.Images.Region, "images-region", "", "S3 region")
	fs.StringVar(&cfg.Storage.Images.Endpoint, "images-endpoint", "", "S3 endpoint override")
	fs.StringVar(&cfg.Storage.Images.Prefix, "images-prefix", "", "S3 key prefix")

	fs.DurationVar(&cfg.Workers.ClipboardPollInterval, "clipboard-interval", 0, "Clipboard poll interval")
	fs.DurationVar(&cfg.Workers.SaveInterval, "save-interval", 0, "Snapshot save interval")
	fs.DurationVar(&cfg.Workers.CredentialCheckInterval, "credential-interval", 0, "Credential check interval")
	fs.DurationVar(&cfg.Workers.ReconnectInterval, "reconnect-interval", 0, "First reconnect delay of a faulted engine")

	fs.Var(&statusAddress, "a", "Status server address host:port")
	fs.StringVar(&cfg.JSONFilePath, "c", "", "JSON config file path")
	fs.StringVar(&cfg.JSONFilePath, "config", "", "JSON config file path (alias)")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("error parsing flags: %w", err)
	}

	cfg.Server.StatusAddress = statusAddress.String()

	return cfg, nil
}

// String returns a canonical host:port string for a NetAddress.
// If neither Host nor Port are set, it returns an empty string.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is
// "localhost" or empty, and returns an error if the format or values are
// invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 || port > 65535 {
		return errors.New("port number must be in range 1-65535")
	}

	if host != "localhost" && host != "" {
		if ip := net.ParseIP(host); ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}

