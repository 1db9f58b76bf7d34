package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

const (
	envToken  = "INTRANET_TOKEN"
	envAPIURL = "INTRANET_API_URL"

	tokenPrefix   = "itk_"
	defaultAPIURL = "http://localhost:8080"
)

var tokenHexPattern = regexp.MustCompile("^[0-9a-fA-F]{64}$")

// GlobalConfig is the credential file stored under the user config directory.
type GlobalConfig struct {
	Token  string `json:"token"`
	APIURL string `json:"api_url"`
}

var (
	getConfigDirFunc  = defaultGetConfigDir
	getConfigPathFunc = defaultGetConfigPath
)

func defaultGetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "intranet"), nil
}

func defaultGetConfigPath() (string, error) {
	configDir, err := getConfigDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.json"), nil
}

// GetConfigPath returns the full path to the config.json file
func GetConfigPath() (string, error) {
	return getConfigPathFunc()
}

// LoadGlobalConfig returns a nil config when the file does not exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config GlobalConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveGlobalConfig writes the config with 0600 permissions.
func SaveGlobalConfig(config *GlobalConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	configDir, err := getConfigDirFunc()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// DeleteGlobalConfig removes the config file. A missing file is not an error.
func DeleteGlobalConfig() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	if err := os.Remove(configPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete config file: %w", err)
	}
	return nil
}

// IsValidToken checks the itk_ + 64 hex format issued by intranetd.
func IsValidToken(token string) bool {
	hexPart, ok := strings.CutPrefix(token, tokenPrefix)
	return ok && tokenHexPattern.MatchString(hexPart)
}

// CredentialSource tells where the active credentials came from.
type CredentialSource string

const (
	SourceFlag         CredentialSource = "flag"
	SourceEnv          CredentialSource = "env"
	SourceGlobalConfig CredentialSource = "global_config"
	SourceNone         CredentialSource = "none"
)

// Credentials is the resolved token and API URL.
type Credentials struct {
	Token  string
	APIURL string
	Source CredentialSource
}

// ResolveCredentials picks each value from flag, then env, then the global
// config. The URL falls back to the local daemon. Source reports where the
// token came from.
func ResolveCredentials(flagToken, flagURL string) (*Credentials, error) {
	creds := &Credentials{Token: flagToken, APIURL: flagURL, Source: SourceNone}
	if creds.Token != "" {
		creds.Source = SourceFlag
	}

	if creds.Token == "" {
		if creds.Token = os.Getenv(envToken); creds.Token != "" {
			creds.Source = SourceEnv
		}
	}
	if creds.APIURL == "" {
		creds.APIURL = os.Getenv(envAPIURL)
	}

	if creds.Token == "" || creds.APIURL == "" {
		global, err := LoadGlobalConfig()
		if err != nil {
			return nil, err
		}
		if global != nil {
			if creds.Token == "" && global.Token != "" {
				creds.Token = global.Token
				creds.Source = SourceGlobalConfig
			}
			if creds.APIURL == "" {
				creds.APIURL = global.APIURL
			}
		}
	}

	if creds.APIURL == "" {
		creds.APIURL = defaultAPIURL
	}
	return creds, nil
}

func maskToken(token string) string {
	if len(token) < 12 {
		return "***"
	}
	return token[:8] + "..." + token[len(token)-4:]
}
