package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Environment keys understood by every command. Values resolve with the
// precedence flags > environment > apimsync.toml.
const (
	envOutputFolder   = "API_MANAGEMENT_SERVICE_OUTPUT_FOLDER_PATH"
	envServiceName    = "API_MANAGEMENT_SERVICE_NAME"
	envSubscriptionID = "AZURE_SUBSCRIPTION_ID"
	envResourceGroup  = "AZURE_RESOURCE_GROUP_NAME"
	envBearerToken    = "AZURE_BEARER_TOKEN"
	envCommitID       = "COMMIT_ID"
	envSpecFormat     = "API_SPECIFICATION_FORMAT"
	envConfigPath     = "CONFIGURATION_YAML_PATH"
)

// settingsFileName is the optional per-project settings file, looked up
// in the working directory.
const settingsFileName = "apimsync.toml"

// Settings carries everything a command needs to reach the service and
// the tree.
type Settings struct {
	ServiceName       string `toml:"service_name"`
	ServiceURL        string `toml:"service_url"`
	OutputFolder      string `toml:"output_folder"`
	SubscriptionID    string `toml:"subscription_id"`
	ResourceGroup     string `toml:"resource_group"`
	APIVersion        string `toml:"api_version"`
	ConfigurationPath string `toml:"configuration_path"`
	SpecFormat        string `toml:"specification_format"`

	// Token and CommitID never come from the settings file.
	Token    string `toml:"-"`
	CommitID string `toml:"-"`
}

// loadSettings resolves settings from apimsync.toml (when present) and
// the environment. Flag values are applied by the commands afterwards,
// so they win.
func loadSettings() (Settings, error) {
	var s Settings
	if data, err := os.ReadFile(settingsFileName); err == nil {
		if err := toml.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("parsing %s: %w", settingsFileName, err)
		}
	}
	overlayEnv(&s.OutputFolder, envOutputFolder)
	overlayEnv(&s.ServiceName, envServiceName)
	overlayEnv(&s.SubscriptionID, envSubscriptionID)
	overlayEnv(&s.ResourceGroup, envResourceGroup)
	overlayEnv(&s.ConfigurationPath, envConfigPath)
	overlayEnv(&s.SpecFormat, envSpecFormat)
	s.Token = os.Getenv(envBearerToken)
	s.CommitID = os.Getenv(envCommitID)
	return s, nil
}

func overlayEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// managementURL resolves the service's management URL, deriving it from
// the subscription, resource group and service name when no explicit URL
// is configured.
func (s *Settings) managementURL() (string, error) {
	if s.ServiceURL != "" {
		return s.ServiceURL, nil
	}
	if s.SubscriptionID == "" || s.ResourceGroup == "" || s.ServiceName == "" {
		return "", fmt.Errorf("service URL unknown: set %s, %s and %s (or service_url in %s)",
			envSubscriptionID, envResourceGroup, envServiceName, settingsFileName)
	}
	return fmt.Sprintf(
		"https://management.azure.com/subscriptions/%s/resourceGroups/%s/providers/Microsoft.ApiManagement/service/%s",
		s.SubscriptionID, s.ResourceGroup, s.ServiceName,
	), nil
}

func (s *Settings) requireOutputFolder() (string, error) {
	if s.OutputFolder == "" {
		return "", fmt.Errorf("service directory unknown: set %s or output_folder in %s", envOutputFolder, settingsFileName)
	}
	return s.OutputFolder, nil
}
