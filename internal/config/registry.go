// Package config loads file-based configuration that does not fit on the
// command line.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

// ContentTypesFile is the YAML description of the host's content types:
//
//	contentTypes:
//	  - uid: api::article.article
//	    displayName: Article
type ContentTypesFile struct {
	ContentTypes []ContentTypeEntry `yaml:"contentTypes"`
}

type ContentTypeEntry struct {
	UID         string `yaml:"uid"`
	DisplayName string `yaml:"displayName"`
}

// LoadRegistry reads path and returns the registry snapshot it describes.
func LoadRegistry(path string) (*domain.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content types %s: %w", path, err)
	}
	reg, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("content types %s: %w", path, err)
	}
	return reg, nil
}

func ParseRegistry(data []byte) (*domain.Registry, error) {
	var file ContentTypesFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	seen := make(map[string]struct{}, len(file.ContentTypes))
	types := make([]domain.ContentType, 0, len(file.ContentTypes))
	for i, entry := range file.ContentTypes {
		uid := strings.TrimSpace(entry.UID)
		if uid == "" {
			return nil, fmt.Errorf("entry %d: %w", i, errors.New("uid is required"))
		}
		if _, dup := seen[uid]; dup {
			return nil, fmt.Errorf("entry %d: duplicate uid %q", i, uid)
		}
		seen[uid] = struct{}{}
		types = append(types, domain.ContentType{UID: uid, DisplayName: strings.TrimSpace(entry.DisplayName)})
	}
	return domain.NewRegistry(types), nil
}
