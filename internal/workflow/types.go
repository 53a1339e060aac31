package workflow

import (
	"errors"
	"fmt"
)

// DefaultWorkflowName is the name given to a fresh configuration tree.
const DefaultWorkflowName = "My LIMO workflow"

// ErrUnknownSection is returned for a section name that is not one of the five pipeline sections.
var ErrUnknownSection = errors.New("unknown configuration section")

// Section names one of the five pipeline stages of a workflow configuration.
// The string value is the key used in the config file.
type Section string

const (
	SectionSeed       Section = "seedConfig"
	SectionGeneration Section = "generationConfig"
	SectionFiltering  Section = "filteringConfig"
	SectionAssessment Section = "assessmentConfig"
	SectionTraining   Section = "trainingConfig"
)

// Sections lists every section in pipeline order.
var Sections = []Section{
	SectionSeed,
	SectionGeneration,
	SectionFiltering,
	SectionAssessment,
	SectionTraining,
}

// ParseSection maps a config file key to its Section.
func ParseSection(name string) (Section, error) {
	for _, s := range Sections {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

// Values holds the opaque key/value settings of one section.
type Values map[string]any

// Config is the whole workflow configuration tree.
//
// Section contents are not interpreted. Extra keeps top-level keys that are not
// part of the model so they survive a load/save cycle.
type Config struct {
	WorkflowName        string         `yaml:"workflowName"`
	WorkflowDescription string         `yaml:"workflowDescription"`
	SeedConfig          Values         `yaml:"seedConfig"`
	GenerationConfig    Values         `yaml:"generationConfig"`
	FilteringConfig     Values         `yaml:"filteringConfig"`
	AssessmentConfig    Values         `yaml:"assessmentConfig"`
	TrainingConfig      Values         `yaml:"trainingConfig"`
	Extra               map[string]any `yaml:",inline"`
}

// Default returns the tree used before any project has been loaded.
func Default() Config {
	return Config{WorkflowName: DefaultWorkflowName}.WithDefaults()
}

// WithDefaults returns a copy of c in which every nil section is an empty map.
func (c Config) WithDefaults() Config {
	for _, s := range Sections {
		if p := c.section(s); *p == nil {
			*p = Values{}
		}
	}
	return c
}

// Section returns the values of the given section (nil if unset).
func (c Config) Section(s Section) Values {
	if p := c.section(s); p != nil {
		return *p
	}
	return nil
}

func (c *Config) section(s Section) *Values {
	switch s {
	case SectionSeed:
		return &c.SeedConfig
	case SectionGeneration:
		return &c.GenerationConfig
	case SectionFiltering:
		return &c.FilteringConfig
	case SectionAssessment:
		return &c.AssessmentConfig
	case SectionTraining:
		return &c.TrainingConfig
	default:
		return nil
	}
}

// Clone returns a deep, canonicalized copy of c. Nil sections stay nil.
func (c Config) Clone() Config {
	out := Config{
		WorkflowName:        c.WorkflowName,
		WorkflowDescription: c.WorkflowDescription,
	}
	for _, s := range Sections {
		if v := c.Section(s); v != nil {
			*out.section(s) = Values(CanonicalMap(v))
		}
	}
	if c.Extra != nil {
		out.Extra = CanonicalMap(c.Extra)
	}
	return out
}
