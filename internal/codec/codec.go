package codec

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	"datapresso/internal/workflow"
)

const indent = 2

// Encode renders cfg as YAML text.
//
// Output is deterministic: the name and description come first, then the five
// sections in pipeline order, then unknown top-level keys sorted by name. Keys
// inside maps are sorted. Nil sections are written as {}.
func Encode(cfg workflow.Config) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}

	appendPair(root, "workflowName", stringNode(cfg.WorkflowName))
	appendPair(root, "workflowDescription", stringNode(cfg.WorkflowDescription))

	known := map[string]bool{"workflowName": true, "workflowDescription": true}
	for _, s := range workflow.Sections {
		known[string(s)] = true
		n, err := valueNode(map[string]any(cfg.Section(s)))
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", s, err)
		}
		appendPair(root, string(s), n)
	}

	for _, k := range sortedKeys(cfg.Extra) {
		if known[k] {
			continue
		}
		n, err := valueNode(cfg.Extra[k])
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", k, err)
		}
		appendPair(root, k, n)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, fmt.Errorf("failed to encode workflow configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode workflow configuration: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses YAML text into a configuration tree.
//
// The text must hold a single mapping. Missing sections are left nil; callers
// that need a complete tree apply WithDefaults. Any failure is a *FormatError.
func Decode(text []byte) (workflow.Config, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(text, &doc); err != nil {
		return workflow.Config{}, newFormatError("content is not valid YAML", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return workflow.Config{}, &FormatError{Reason: "document is empty"}
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return workflow.Config{}, &FormatError{
			Line:   root.Line,
			Reason: fmt.Sprintf("top-level value is %s, expected a mapping", kindName(root)),
		}
	}

	var cfg workflow.Config
	if err := root.Decode(&cfg); err != nil {
		return workflow.Config{}, newFormatError("a field has the wrong shape", err)
	}
	return cfg.Clone(), nil
}

// ParseValue interprets a value typed by the user as YAML: "3" is an int,
// "true" a bool, "[a, b]" a list and plain words stay strings.
func ParseValue(text string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, newFormatError("value is not valid YAML", err)
	}
	return workflow.Canonical(v), nil
}

// ToJSON converts encoded YAML into JSON for the export path.
func ToJSON(text []byte) ([]byte, error) {
	out, err := sigsyaml.YAMLToJSON(text)
	if err != nil {
		return nil, fmt.Errorf("failed to convert configuration to JSON: %w", err)
	}
	return out, nil
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, stringNode(key), value)
}

func valueNode(v any) (*yaml.Node, error) {
	switch t := workflow.Canonical(v).(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case string:
		return stringNode(t), nil
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t)}, nil
	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(t)}, nil
	case uint64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(t, 10)}, nil
	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(t)}, nil
	case map[string]any:
		n := &yaml.Node{Kind: yaml.MappingNode}
		if len(t) == 0 {
			n.Style = yaml.FlowStyle
		}
		for _, k := range sortedKeys(t) {
			child, err := valueNode(t[k])
			if err != nil {
				return nil, err
			}
			appendPair(n, k, child)
		}
		return n, nil
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		if len(t) == 0 {
			n.Style = yaml.FlowStyle
		}
		for _, item := range t {
			child, err := valueNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", t)
	}
}

// stringNode tags the scalar as a string so the encoder quotes values such as
// "123", "true" or "" that would otherwise read back as another type.
// Bytes that are not valid UTF-8 are written as !!binary, which decodes back
// to the same string.
func stringNode(s string) *yaml.Node {
	if !utf8.ValidString(s) {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString([]byte(s))}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// formatFloat keeps a decimal point on whole numbers, so 1.0 is not read back as int 1.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "a list"
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "null"
		}
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "not a mapping"
	}
}
