// SPDX-License-Identifier: MPL-2.0

package manifest

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/prism-cli/prism/pkg/cueutil"
)

//go:embed manifest_schema.cue
var schemaBytes []byte

// Decode parses a manifest document and normalizes it without running the
// semantic checks. Syntax and shape problems are returned as *ValidationError.
func Decode(data []byte, filename string) (*Manifest, error) {
	if filename == "" {
		filename = FileName
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, filename); err != nil {
		return nil, newValidationError(filename, issuef(SeverityError, "", "%v", err))
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, newValidationError(filename, issuef(SeverityError, "", "malformed document: %v", err))
	}

	root := resolve(&doc)
	if root == nil || root.Kind == 0 || isNull(root) {
		return nil, newValidationError(filename, issuef(SeverityError, "", "document is empty"))
	}
	if root.Kind != yaml.MappingNode {
		return nil, newValidationError(filename, issuef(SeverityError, "", "document must be a mapping, got %s", kindName(root)))
	}

	if err := checkShape(root, filename); err != nil {
		return nil, err
	}

	m := translate(root)
	m.FilePath = filename
	return Normalize(m), nil
}

func checkShape(root *yaml.Node, filename string) error {
	if issues := nullHooks(root); len(issues) > 0 {
		return newValidationError(filename, issues...)
	}

	value, err := toValue(root)
	if err != nil {
		return newValidationError(filename, issuef(SeverityError, "", "malformed document: %v", err))
	}
	jsonDoc, err := json.Marshal(value)
	if err != nil {
		return newValidationError(filename, issuef(SeverityError, "", "malformed document: %v", err))
	}

	err = cueutil.Validate(schemaBytes, jsonDoc, "#Manifest", cueutil.WithFilename(filename))
	if err == nil {
		return nil
	}

	var se *cueutil.SchemaError
	if !errors.As(err, &se) {
		return newValidationError(filename, issuef(SeverityError, "", "%v", err))
	}
	issues := make([]ValidationIssue, 0, len(se.Violations))
	for _, v := range se.Violations {
		issues = append(issues, ValidationIssue{Field: v.Path, Message: v.Message, Severity: SeverityError})
	}
	return newValidationError(filename, issues...)
}

// nullHooks reports hook events declared without a body. toValue drops null
// values, so the schema alone would accept them.
func nullHooks(root *yaml.Node) []ValidationIssue {
	var issues []ValidationIssue
	eachPair(root, func(key string, v *yaml.Node) {
		if key != "hooks" {
			return
		}
		eachPair(v, func(event string, body *yaml.Node) {
			if b := resolve(body); b == nil || isNull(b) {
				issues = append(issues, issuef(SeverityError, "hooks."+event, "hook %s has no body; hook body must be a string", event))
			}
		})
	})
	return issues
}

// toValue converts a YAML node into plain Go values suitable for JSON encoding.
// Null mapping values are dropped so the schema treats them as absent.
func toValue(n *yaml.Node) (any, error) {
	n = resolve(n)
	if n == nil {
		return nil, nil
	}

	switch n.Kind {
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := resolve(n.Content[i])
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			v, err := toValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			if v == nil {
				continue
			}
			out[key.Value] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := toValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		return scalarValue(n), nil
	default:
		return nil, fmt.Errorf("line %d: unsupported node", n.Line)
	}
}

func scalarValue(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return b
		}
	case "!!int", "!!float":
		var v any
		if err := n.Decode(&v); err == nil {
			switch num := v.(type) {
			case int, int64, uint64:
				return num
			case float64:
				if !math.IsNaN(num) && !math.IsInf(num, 0) {
					return num
				}
			}
		}
	}
	return n.Value
}

func translate(root *yaml.Node) *Manifest {
	m := &Manifest{}
	eachPair(root, func(key string, v *yaml.Node) {
		switch key {
		case "name":
			m.Name = PackageName(scalar(v))
		case "version":
			m.Version = SemVer(scalar(v))
		case "description":
			m.Description = scalar(v)
		case "author":
			m.Author = scalar(v)
		case "license":
			m.License = scalar(v)
		case "repository":
			m.Repository = scalar(v)
		case "homepage":
			m.Homepage = scalar(v)
		case "keywords":
			m.Keywords = stringList(v)
		case "claudeCodeCompatibility", "platformCompat":
			if compat := translateCompat(v); compat != nil {
				m.PlatformCompat = compat
			}
		case "structure":
			m.Structure = translateStructure(v)
		case "variants":
			m.Variants = translateVariants(v)
		case "dependencies":
			m.Dependencies = translateDependencies(v)
		case "hooks":
			eachPair(v, func(event string, body *yaml.Node) {
				if m.Hooks == nil {
					m.Hooks = make(map[HookEvent]string)
				}
				m.Hooks[HookEvent(event)] = scalar(body)
			})
		case "ignore":
			m.Ignore = stringList(v)
		}
	})
	return m
}

func translateCompat(n *yaml.Node) *PlatformCompat {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	compat := &PlatformCompat{}
	eachPair(n, func(key string, v *yaml.Node) {
		switch key {
		case "minVersion":
			compat.MinVersion = SemVer(scalar(v))
		case "maxVersion":
			compat.MaxVersion = SemVer(scalar(v))
		}
	})
	return compat
}

func translateStructure(n *yaml.Node) []StructureSection {
	var sections []StructureSection
	eachPair(n, func(key string, v *yaml.Node) {
		section := StructureSection{Type: StructureType(key)}
		if seq := resolve(v); seq != nil && seq.Kind == yaml.SequenceNode {
			for _, c := range seq.Content {
				section.Items = append(section.Items, translateItem(c))
			}
		}
		sections = append(sections, section)
	})
	return sections
}

func translateItem(n *yaml.Node) StructureItem {
	var item StructureItem
	eachPair(n, func(key string, v *yaml.Node) {
		switch key {
		case "source":
			item.Source = scalar(v)
		case "dest":
			item.Dest = scalar(v)
		case "pattern":
			item.Pattern = scalar(v)
		case "exclude":
			item.Exclude = stringList(v)
		}
	})
	return item
}

func translateVariants(n *yaml.Node) []Variant {
	var variants []Variant
	eachPair(n, func(name string, v *yaml.Node) {
		variant := Variant{Name: VariantName(name)}
		eachPair(v, func(key string, f *yaml.Node) {
			switch key {
			case "description":
				variant.Description = scalar(f)
			case "include":
				variant.Include = stringList(f)
			case "exclude":
				variant.Exclude = stringList(f)
			}
		})
		variants = append(variants, variant)
	})
	return variants
}

func translateDependencies(n *yaml.Node) Dependencies {
	var deps Dependencies
	eachPair(n, func(key string, v *yaml.Node) {
		switch key {
		case "system":
			seq := resolve(v)
			if seq == nil || seq.Kind != yaml.SequenceNode {
				return
			}
			for _, c := range seq.Content {
				deps.System = append(deps.System, translateSystemDependency(c))
			}
		case "prism":
			eachPair(v, func(name string, rng *yaml.Node) {
				if deps.Prism == nil {
					deps.Prism = make(map[PackageName]SemVerRange)
				}
				deps.Prism[PackageName(name)] = SemVerRange(scalar(rng))
			})
		}
	})
	return deps
}

func translateSystemDependency(n *yaml.Node) SystemDependency {
	n = resolve(n)
	if n.Kind == yaml.ScalarNode {
		return SystemDependency{Name: scalar(n)}
	}
	var dep SystemDependency
	eachPair(n, func(key string, v *yaml.Node) {
		switch key {
		case "name":
			dep.Name = scalar(v)
		case "required":
			var b bool
			if rv := resolve(v); rv != nil && !isNull(rv) && rv.Decode(&b) == nil {
				dep.Required = &b
			}
		case "version":
			dep.Version = SemVerRange(scalar(v))
		case "install":
			dep.Install = scalar(v)
		}
	})
	return dep
}

// eachPair calls fn for every key/value pair of a mapping node in document order.
func eachPair(n *yaml.Node, fn func(key string, value *yaml.Node)) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		fn(resolve(n.Content[i]).Value, n.Content[i+1])
	}
}

func scalar(n *yaml.Node) string {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || isNull(n) {
		return ""
	}
	return n.Value
}

// stringList accepts a sequence of scalars or a single scalar. A null node
// yields nil; an empty sequence yields an empty, non-nil slice.
func stringList(n *yaml.Node) []string {
	n = resolve(n)
	if n == nil || isNull(n) {
		return nil
	}
	if n.Kind == yaml.ScalarNode {
		return []string{n.Value}
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, scalar(c))
	}
	return out
}

// resolve unwraps document and alias nodes.
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch n.Kind {
		case yaml.DocumentNode:
			if len(n.Content) == 0 {
				return nil
			}
			n = n.Content[0]
		case yaml.AliasNode:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}

func kindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "mapping"
	}
}
