package rules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ruleSetFile is the on-disk YAML shape: one app's rule set per file.
type ruleSetFile struct {
	AppID string `yaml:"app_id"`
	Rules []Rule `yaml:"rules"`
}

// FileSystemRepository loads rule sets from *.yaml files in a directory.
// Each file declares one app. Rule sets are loaded once at startup and
// cached in memory - no hot reload; re-imports go through the database
// repository in production.
type FileSystemRepository struct {
	*MemoryRepository
	dir string
}

// NewFileSystemRepository creates a repository and eagerly loads all rule
// sets from dir. Returns an error if any file is malformed or declares an
// unsupported data type.
func NewFileSystemRepository(dir string) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		MemoryRepository: NewMemoryRepository(),
		dir:              dir,
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil // no rules directory - valid (zero rule sets configured)
	}
	if err != nil {
		return fmt.Errorf("rules dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("rules path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("read rules dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		path := filepath.Join(r.dir, name)
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read rule file %q: %w", path, err)
		}

		var file ruleSetFile
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return fmt.Errorf("parse rule file %q: %w", path, err)
		}
		if file.AppID == "" {
			return fmt.Errorf("rule file %q: app_id is required", path)
		}
		for i, rule := range file.Rules {
			if rule.EventType == "" {
				return fmt.Errorf("rule file %q: rules[%d]: event_type is required", path, i)
			}
			if rule.Field == "" {
				return fmt.Errorf("rule file %q: rules[%d]: field is required", path, i)
			}
			if !ValidDataType(rule.Type) {
				return fmt.Errorf("rule file %q: rules[%d]: unsupported type %q", path, i, rule.Type)
			}
		}

		if err := r.Replace(context.Background(), file.AppID, file.Rules); err != nil {
			return fmt.Errorf("load rule file %q: %w", path, err)
		}
	}

	return nil
}
