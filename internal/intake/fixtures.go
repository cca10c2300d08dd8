package intake

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"facility-intake-backend/internal/types"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type fixtures struct {
	Directory   types.Directory       `yaml:"directory"`
	DemoSession types.Session         `yaml:"demoSession"`
	History     []types.HistoryRecord `yaml:"history"`
}

// fixtureSource decodes a fresh copy on every call so callers can never share
// or mutate substitute data.
type fixtureSource struct {
	raw []byte
}

func loadFixtureSource(path string) (fixtureSource, error) {
	raw := defaultFixtures
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return fixtureSource{}, fmt.Errorf("read fixtures: %w", err)
		}
		raw = b
	}
	src := fixtureSource{raw: raw}
	if _, err := src.decode(); err != nil {
		return fixtureSource{}, err
	}
	return src, nil
}

func (s fixtureSource) decode() (*fixtures, error) {
	var f fixtures
	if err := yaml.Unmarshal(s.raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

func (s fixtureSource) directory() *types.Directory {
	f, err := s.decode()
	if err != nil {
		return nil
	}
	return &f.Directory
}

func (s fixtureSource) demoSession() *types.Session {
	f, err := s.decode()
	if err != nil {
		return nil
	}
	return &f.DemoSession
}

func (s fixtureSource) history(propertyName string) *types.History {
	f, err := s.decode()
	if err != nil {
		return nil
	}
	records := f.History
	for i := range records {
		records[i].Property = propertyName
	}
	return &types.History{PropertyName: propertyName, Records: records}
}
