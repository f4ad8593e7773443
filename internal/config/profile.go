package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"campus-advisor/internal/catalog"
	"campus-advisor/internal/extract"
)

// Profile describes one study programme: how its semesters map to terms and
// which words its handbook and schedule exports use.
type Profile struct {
	Curriculum catalog.Curriculum `yaml:"curriculum"`
	Vocabulary extract.Vocabulary `yaml:"vocabulary"`
}

// DefaultProfile returns the built-in curriculum and vocabulary.
func DefaultProfile() *Profile {
	return &Profile{
		Curriculum: catalog.DefaultCurriculum(),
		Vocabulary: extract.DefaultVocabulary(),
	}
}

// LoadProfile reads a profile from path. An empty path or a missing file
// yields the defaults; keys absent from the file keep their default values.
func LoadProfile(path string) (*Profile, error) {
	profile := DefaultProfile()
	if path == "" {
		return profile, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return profile, nil
		}
		return nil, fmt.Errorf("failed to read curriculum profile: %w", err)
	}
	if err := yaml.Unmarshal(data, profile); err != nil {
		return nil, fmt.Errorf("failed to parse curriculum profile %s: %w", path, err)
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("invalid curriculum profile %s: %w", path, err)
	}
	return profile, nil
}

// Validate checks that the curriculum is usable.
func (p *Profile) Validate() error {
	c := p.Curriculum
	if len(c.WinterSemesters) == 0 && len(c.SummerSemesters) == 0 {
		return errors.New("curriculum lists no semesters")
	}
	seen := map[int]bool{}
	for _, n := range append(append([]int{}, c.WinterSemesters...), c.SummerSemesters...) {
		if n < 1 {
			return fmt.Errorf("semester %d must be positive", n)
		}
		if seen[n] {
			return fmt.Errorf("semester %d is listed in both terms", n)
		}
		seen[n] = true
	}
	for _, m := range c.WinterMonths {
		if m < 1 || m > 12 {
			return fmt.Errorf("winter month %d out of range", m)
		}
	}
	if p.Vocabulary.ModuleCodePattern == "" {
		return errors.New("vocabulary needs a module code pattern")
	}
	return nil
}
