package sable

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Binding pairs a capability specifier with the guest global name it is
// bound under.
type Binding struct {
	Specifier string
	Global    string
}

// Manifest is the ordered list of bindings bootstrap establishes. Order
// must be a valid topological order of any construction dependencies
// between capabilities.
type Manifest []Binding

// DefaultManifest returns the built-in bootstrap order. The filesystem
// capability comes last: it is the only one whose construction can fail
// hard, and nothing else depends on it.
func DefaultManifest() Manifest {
	return Manifest{
		{Specifier: SpecConsole, Global: GlobalConsole},
		{Specifier: SpecEnvironment, Global: GlobalEnv},
		{Specifier: SpecSystemInfo, Global: GlobalSystemInfo},
		{Specifier: SpecTime, Global: GlobalTime},
		{Specifier: SpecEncoding, Global: GlobalEncoding},
		{Specifier: SpecFileSystem, Global: GlobalFileSystem},
	}
}

// Validate checks that every entry names a reserved specifier and an
// identifier-shaped global, with no duplicates on either side.
func (m Manifest) Validate() error {
	seenGlobals := make(map[string]struct{}, len(m))
	seenSpecs := make(map[string]struct{}, len(m))
	for _, binding := range m {
		if !InReservedNamespace(binding.Specifier) {
			return fmt.Errorf("sable: manifest entry %q is not a %s specifier", binding.Specifier, specifierScheme)
		}
		if !isValidGlobalName(binding.Global) {
			return fmt.Errorf("sable: manifest global %q is not a valid identifier", binding.Global)
		}
		if _, dup := seenGlobals[binding.Global]; dup {
			return fmt.Errorf("sable: manifest binds global %q twice", binding.Global)
		}
		if _, dup := seenSpecs[binding.Specifier]; dup {
			return fmt.Errorf("sable: manifest binds specifier %q twice", binding.Specifier)
		}
		seenGlobals[binding.Global] = struct{}{}
		seenSpecs[binding.Specifier] = struct{}{}
	}
	return nil
}

func isValidGlobalName(name string) bool {
	if name == "" {
		return false
	}
	for idx, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r == '_':
		case r >= '0' && r <= '9' && idx > 0:
		default:
			return false
		}
	}
	return true
}

type manifestFile struct {
	Bindings []manifestBlock `hcl:"binding,block"`
}

type manifestBlock struct {
	Global string         `hcl:"global,label"`
	Module hcl.Expression `hcl:"module"`
}

// LoadManifest reads an HCL bootstrap manifest from path. Block order is
// binding order:
//
//	binding "env" {
//	  module = "cap:sable/environment"
//	}
func LoadManifest(path string) (Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sable: read manifest %s: %w", path, err)
	}
	return ParseManifest(src, path)
}

// ParseManifest decodes HCL manifest source. The filename is used for
// diagnostics only.
func ParseManifest(src []byte, filename string) (Manifest, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("sable: parse manifest %s: %s", filename, diags.Error())
	}

	var mf manifestFile
	if diags := gohcl.DecodeBody(file.Body, nil, &mf); diags.HasErrors() {
		return nil, fmt.Errorf("sable: decode manifest %s: %s", filename, diags.Error())
	}

	manifest := make(Manifest, 0, len(mf.Bindings))
	for _, block := range mf.Bindings {
		val, diags := block.Module.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("sable: manifest binding %q: %s", block.Global, diags.Error())
		}
		if val.IsNull() || val.Type() != cty.String {
			return nil, fmt.Errorf("sable: manifest binding %q: module must be a string", block.Global)
		}
		manifest = append(manifest, Binding{Specifier: val.AsString(), Global: block.Global})
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}
