package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	maxWalkDepth = 25
	envPrefix    = "RELSCHEMA"
)

var configNames = []string{"relschema.yaml", "relschema.yml"}

// Load discovers and loads the policy with precedence
// env > config file > defaults.
//
// Returns the loaded policy, the path of the config file (empty if none was
// found), and any error encountered.
func Load(explicitConfigPath string) (*Policy, string, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath, err := findConfigFile(explicitConfigPath)
	if err != nil {
		return nil, "", err
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, configPath, fmt.Errorf("reading config file: %w", err)
		}
	}

	var p Policy
	if err := v.Unmarshal(&p); err != nil {
		return nil, configPath, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &p, configPath, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("naming.method", d.Naming.Method)
	v.SetDefault("naming.convert_to_lower", d.Naming.ConvertToLower)
	v.SetDefault("naming.property_convention", d.Naming.PropertyConvention)
	v.SetDefault("naming.optional_entity", d.Naming.OptionalEntity)

	v.SetDefault("relation.one_to_one_referrer_sub_query", false)
	v.SetDefault("relation.sub_query_excluded_tables", []string{})
}

// findConfigFile finds the config file to use.
// If explicitPath is provided, it validates the file exists.
// Otherwise, it walks up from cwd looking for relschema.yaml or relschema.yml,
// stopping at a .git directory or after maxWalkDepth levels.
func findConfigFile(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}

	dir := cwd
	for i := 0; i < maxWalkDepth; i++ {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", nil
}
