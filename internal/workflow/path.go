package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// Top-level keys that are not sections.
const (
	KeyWorkflowName        = "workflowName"
	KeyWorkflowDescription = "workflowDescription"
)

// ErrInvalidPath is returned for a dotted path that does not address a value.
var ErrInvalidPath = errors.New("invalid configuration path")

// Lookup returns the value addressed by a dotted path such as
// "trainingConfig.optimizer.lr". A bare section name returns the whole section.
func (c Config) Lookup(path string) (any, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	switch parts[0] {
	case KeyWorkflowName, KeyWorkflowDescription:
		if len(parts) > 1 {
			return nil, fmt.Errorf("%w: %s is not a mapping", ErrInvalidPath, parts[0])
		}
		if parts[0] == KeyWorkflowName {
			return c.WorkflowName, nil
		}
		return c.WorkflowDescription, nil
	}

	section, err := ParseSection(parts[0])
	if err != nil {
		return nil, err
	}

	var current any = map[string]any(c.Section(section))
	for i, key := range parts[1:] {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: %s is not a mapping", ErrInvalidPath, strings.Join(parts[:i+1], "."))
		}
		if current, ok = m[key]; !ok {
			return nil, fmt.Errorf("%w: %s is not set", ErrInvalidPath, strings.Join(parts[:i+2], "."))
		}
	}
	return Canonical(current), nil
}

// Set assigns value at a dotted path, creating intermediate mappings as
// needed. workflowName and workflowDescription take the value's text.
// Setting a bare section requires a mapping, which is merged like UpdateSection.
func (s *Store) Set(path string, value any) error {
	parts, err := splitPath(path)
	if err != nil {
		return err
	}

	switch parts[0] {
	case KeyWorkflowName, KeyWorkflowDescription:
		if len(parts) > 1 {
			return fmt.Errorf("%w: %s is not a mapping", ErrInvalidPath, parts[0])
		}
		text := ""
		if value != nil {
			text = fmt.Sprint(value)
		}
		if parts[0] == KeyWorkflowName {
			s.SetName(text)
		} else {
			s.SetDescription(text)
		}
		return nil
	}

	if len(parts) == 1 {
		m, ok := Canonical(value).(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s takes a mapping", ErrInvalidPath, parts[0])
		}
		return s.UpdateSection(parts[0], m)
	}

	section, err := ParseSection(parts[0])
	if err != nil {
		return err
	}
	value = Canonical(value)

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.cfg.section(section)
	if *p == nil {
		*p = Values{}
	}
	m := map[string]any(*p)
	keys := parts[1:]
	for i, key := range keys[:len(keys)-1] {
		next, exists := m[key]
		if !exists || next == nil {
			child := map[string]any{}
			m[key] = child
			m = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s is not a mapping", ErrInvalidPath, strings.Join(parts[:i+2], "."))
		}
		m = child
	}
	m[keys[len(keys)-1]] = value
	return nil
}

func splitPath(path string) ([]string, error) {
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return parts, nil
}
