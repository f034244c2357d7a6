package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettingsFromEnvironment(t *testing.T) {
	t.Setenv(envServiceName, "svc-from-env")
	t.Setenv(envOutputFolder, "/tmp/tree")
	t.Setenv(envSubscriptionID, "sub")
	t.Setenv(envResourceGroup, "rg")
	t.Setenv(envBearerToken, "tok")
	t.Setenv(envCommitID, "abc123")

	s, err := loadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if s.ServiceName != "svc-from-env" || s.OutputFolder != "/tmp/tree" {
		t.Errorf("settings = %+v", s)
	}
	if s.Token != "tok" || s.CommitID != "abc123" {
		t.Errorf("token/commit = %q, %q", s.Token, s.CommitID)
	}

	url, err := s.managementURL()
	if err != nil {
		t.Fatal(err)
	}
	want := "https://management.azure.com/subscriptions/sub/resourceGroups/rg/providers/Microsoft.ApiManagement/service/svc-from-env"
	if url != want {
		t.Errorf("url = %q, want %q", url, want)
	}
}

func TestLoadSettingsTomlUnderEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, settingsFileName), []byte(`
service_name = "svc-from-toml"
output_folder = "tree-from-toml"
api_version = "2023-05-01-preview"
`), 0o644); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	t.Setenv(envServiceName, "svc-from-env")
	t.Setenv(envOutputFolder, "")

	s, err := loadSettings()
	if err != nil {
		t.Fatal(err)
	}
	if s.ServiceName != "svc-from-env" {
		t.Errorf("environment must win over toml, got %q", s.ServiceName)
	}
	if s.OutputFolder != "tree-from-toml" {
		t.Errorf("toml value must apply when env is unset, got %q", s.OutputFolder)
	}
	if s.APIVersion != "2023-05-01-preview" {
		t.Errorf("api version = %q", s.APIVersion)
	}
}

func TestManagementURLRequiresIdentity(t *testing.T) {
	s := Settings{}
	if _, err := s.managementURL(); err == nil {
		t.Error("expected error without identity")
	}
	s = Settings{ServiceURL: "https://example.com/svc"}
	url, err := s.managementURL()
	if err != nil || url != "https://example.com/svc" {
		t.Errorf("explicit URL must pass through: %q, %v", url, err)
	}
	if _, err := (&Settings{}).requireOutputFolder(); err == nil {
		t.Error("expected error without output folder")
	}
}
