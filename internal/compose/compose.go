// Package compose parses compose documents into a structural model. Parsing
// works on the yaml node tree rather than struct tags so that service
// declaration order is preserved; that order later becomes creation order.
//
// The parser does not resolve variable interpolation, read .env files, or
// check that images exist. That is the orchestrator's business.
package compose

import (
	"fmt"
	"strings"

	"github.com/dockhaven/dockhaven/internal/apperr"
	"gopkg.in/yaml.v3"
)

// Document is a parsed compose file.
type Document struct {
	Version  string
	Services []Service     // in declaration order
	Networks []NetworkDecl // top-level networks, declaration order
	Volumes  []VolumeDecl  // top-level volumes, declaration order
}

// Service is one declared service.
type Service struct {
	Name        string
	Image       string
	Ports       []string          // "host:container"
	Environment map[string]string // normalized: list and map forms both land here
	Volumes     []string          // "source:target[:mode]"
	Restart     string
	Networks    []string // references to top-level network names
}

// NetworkDecl is a top-level network declaration.
type NetworkDecl struct {
	Name   string
	Driver string
	Subnet string // optional explicit CIDR from ipam config
}

// VolumeDecl is a top-level volume declaration.
type VolumeDecl struct {
	Name   string
	Driver string
}

// ServiceNames returns the declared service names in order.
func (d *Document) ServiceNames() []string {
	names := make([]string, len(d.Services))
	for i, s := range d.Services {
		names[i] = s.Name
	}
	return names
}

// Parse parses a compose document. It fails with a validation error if the
// text is not well-formed yaml, the top level is not a mapping, or there is
// no services section.
func Parse(text string) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, apperr.Validation("invalid compose document: %v", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, apperr.Validation("compose document is empty")
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, apperr.Validation("compose document top level must be a mapping")
	}

	doc := &Document{}
	var servicesNode *yaml.Node
	for key, val := range mappingPairs(top) {
		switch key {
		case "version":
			doc.Version = val.Value
		case "services":
			servicesNode = val
		case "networks":
			nets, err := parseNetworkDecls(val)
			if err != nil {
				return nil, err
			}
			doc.Networks = nets
		case "volumes":
			vols, err := parseVolumeDecls(val)
			if err != nil {
				return nil, err
			}
			doc.Volumes = vols
		}
	}

	if servicesNode == nil {
		return nil, apperr.Validation("compose document has no services section")
	}
	if servicesNode.Kind != yaml.MappingNode {
		return nil, apperr.Validation("services must be a mapping")
	}

	for name, val := range mappingPairs(servicesNode) {
		svc, err := parseService(name, val)
		if err != nil {
			return nil, err
		}
		doc.Services = append(doc.Services, svc)
	}
	if len(doc.Services) == 0 {
		return nil, apperr.Validation("compose document declares no services")
	}
	return doc, nil
}

func parseService(name string, node *yaml.Node) (Service, error) {
	svc := Service{Name: name, Environment: map[string]string{}}
	if node.Kind != yaml.MappingNode {
		return svc, apperr.Validation("service %q must be a mapping", name)
	}

	for key, val := range mappingPairs(node) {
		switch key {
		case "image":
			svc.Image = val.Value
		case "ports":
			ports, err := scalarList(val)
			if err != nil {
				return svc, apperr.Validation("service %q: ports must be a list", name)
			}
			svc.Ports = ports
		case "environment":
			env, err := parseEnvironment(val)
			if err != nil {
				return svc, apperr.Validation("service %q: %v", name, err)
			}
			svc.Environment = env
		case "volumes":
			vols, err := scalarList(val)
			if err != nil {
				return svc, apperr.Validation("service %q: volumes must be a list", name)
			}
			svc.Volumes = vols
		case "restart":
			svc.Restart = val.Value
		case "networks":
			nets, err := networkRefs(val)
			if err != nil {
				return svc, apperr.Validation("service %q: %v", name, err)
			}
			svc.Networks = nets
		}
	}

	if svc.Image == "" {
		return svc, apperr.Validation("service %q has no image", name)
	}
	return svc, nil
}

// parseEnvironment normalizes both environment forms (a mapping, or a list
// of "KEY=VALUE" strings) into one map. Nothing downstream ever sees the
// raw shape.
func parseEnvironment(node *yaml.Node) (map[string]string, error) {
	env := map[string]string{}
	switch node.Kind {
	case yaml.MappingNode:
		for key, val := range mappingPairs(node) {
			env[key] = val.Value
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			k, v, found := strings.Cut(item.Value, "=")
			if !found {
				return nil, fmt.Errorf("environment entry %q is not KEY=VALUE", item.Value)
			}
			env[k] = v
		}
	default:
		return nil, fmt.Errorf("environment must be a mapping or a list")
	}
	return env, nil
}

func parseNetworkDecls(node *yaml.Node) ([]NetworkDecl, error) {
	if node.Kind != yaml.MappingNode {
		return nil, apperr.Validation("networks must be a mapping")
	}
	var decls []NetworkDecl
	for name, val := range mappingPairs(node) {
		decl := NetworkDecl{Name: name}
		if val.Kind == yaml.MappingNode {
			for k, v := range mappingPairs(val) {
				switch k {
				case "driver":
					decl.Driver = v.Value
				case "ipam":
					decl.Subnet = ipamSubnet(v)
				}
			}
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

// ipamSubnet digs the first subnet out of an ipam block:
// ipam: {config: [{subnet: 10.5.0.0/24}]}
func ipamSubnet(node *yaml.Node) string {
	if node.Kind != yaml.MappingNode {
		return ""
	}
	for k, v := range mappingPairs(node) {
		if k != "config" || v.Kind != yaml.SequenceNode {
			continue
		}
		for _, entry := range v.Content {
			if entry.Kind != yaml.MappingNode {
				continue
			}
			for ek, ev := range mappingPairs(entry) {
				if ek == "subnet" {
					return ev.Value
				}
			}
		}
	}
	return ""
}

func parseVolumeDecls(node *yaml.Node) ([]VolumeDecl, error) {
	if node.Kind != yaml.MappingNode {
		return nil, apperr.Validation("volumes must be a mapping")
	}
	var decls []VolumeDecl
	for name, val := range mappingPairs(node) {
		decl := VolumeDecl{Name: name}
		if val.Kind == yaml.MappingNode {
			for k, v := range mappingPairs(val) {
				if k == "driver" {
					decl.Driver = v.Value
				}
			}
		}
		decls = append(decls, decl)
	}
	return decls, nil
}

// networkRefs accepts both the list form and the mapping form of a service
// networks section.
func networkRefs(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		return scalarList(node)
	case yaml.MappingNode:
		var refs []string
		for name := range mappingPairs(node) {
			refs = append(refs, name)
		}
		return refs, nil
	}
	return nil, fmt.Errorf("networks must be a list or a mapping")
}

// scalarList converts a sequence of scalars to strings. Bare numbers (e.g. a
// port written as 8080) become their string form.
func scalarList(node *yaml.Node) ([]string, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("expected a list")
	}
	out := make([]string, 0, len(node.Content))
	for _, item := range node.Content {
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("expected scalar list entries")
		}
		out = append(out, item.Value)
	}
	return out, nil
}

// mappingPairs iterates a yaml mapping node's key/value pairs in document
// order.
func mappingPairs(node *yaml.Node) func(yield func(string, *yaml.Node) bool) {
	return func(yield func(string, *yaml.Node) bool) {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if !yield(node.Content[i].Value, node.Content[i+1]) {
				return
			}
		}
	}
}
