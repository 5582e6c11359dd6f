package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// The baseline file ("policy configuration file") is a JSON document keyed
// by platform version, then component, then category, with a flat
// field→value object at the leaves:
//
//	{
//	  "5.1.0.0": {
//	    "host": {
//	      "PasswordExpiration": {"maxDays": 99999, "minDays": 0, "warnDays": 7},
//	      ...
//	    },
//	    ...
//	  }
//	}
//
// The document is written once by Generate (overwritten only when forced)
// and read many times as the expected side of a drift comparison.
// encoding/json has no nesting depth ceiling, so the four levels
// round-trip without truncation.

// File is a parsed baseline file.
type File struct {
	path     string
	versions map[Version]map[Component]map[Category]Set
}

// rawDocument mirrors the on-disk shape before typed decoding.
type rawDocument map[Version]map[Component]map[Category]json.RawMessage

// Generate serializes the default policy table for one version to a
// baseline file at path. It fails with UNSUPPORTED_VERSION for unknown
// versions and with FILE_EXISTS when the path exists and overwrite is
// false. The file is written to a temporary name and renamed into place,
// so no partial file survives any failure path.
func Generate(version Version, path string, overwrite bool) error {
	sets, err := Defaults(version)
	if err != nil {
		return err
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return newError(CodeFileExists, "baseline file %s already exists (use overwrite to replace it)", path)
		} else if !os.IsNotExist(err) {
			return wrapError(CodeParse, err, "cannot stat baseline file %s", path)
		}
	}

	data, err := marshalDocument(version, sets)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".baseline-*.json")
	if err != nil {
		return wrapError(CodeParse, err, "cannot create baseline file in %s", dir)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return wrapError(CodeParse, err, "cannot write baseline file %s", path)
	}
	if err := tmp.Close(); err != nil {
		return wrapError(CodeParse, err, "cannot flush baseline file %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return wrapError(CodeParse, err, "cannot move baseline file into place at %s", path)
	}
	return nil
}

// marshalDocument renders one version's policy sets in the baseline file
// format.
func marshalDocument(version Version, sets []Set) ([]byte, error) {
	components := make(map[Component]map[Category]Set)
	for _, set := range sets {
		cats, ok := components[set.Component()]
		if !ok {
			cats = make(map[Category]Set)
			components[set.Component()] = cats
		}
		cats[set.Category()] = set
	}

	doc := map[Version]map[Component]map[Category]Set{version: components}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, wrapError(CodeParse, err, "cannot serialize baseline for version %s", version)
	}
	return append(data, '\n'), nil
}

// LoadFile reads and parses a baseline file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapError(CodeParse, err, "cannot read baseline file %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}
	f.path = path
	return f, nil
}

// Parse decodes a baseline document from memory. Unknown components,
// categories or fields are parse errors; a leaf whose field set does not
// match the component's schema is a SCHEMA_MISMATCH.
func Parse(data []byte) (*File, error) {
	var raw rawDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&raw); err != nil {
		return nil, wrapError(CodeParse, err, "malformed baseline document")
	}

	known := make(map[Component]bool)
	for _, c := range Components() {
		known[c] = true
	}

	f := &File{versions: make(map[Version]map[Component]map[Category]Set, len(raw))}
	for version, components := range raw {
		block := make(map[Component]map[Category]Set, len(components))
		for comp, cats := range components {
			if !known[comp] {
				return nil, newError(CodeParse, "baseline version %s names unknown component %q", version, comp)
			}
			catBlock := make(map[Category]Set, len(cats))
			for cat, leaf := range cats {
				set, err := DecodeSet(comp, cat, leaf)
				if err != nil {
					return nil, err
				}
				catBlock[cat] = set
			}
			block[comp] = catBlock
		}
		f.versions[version] = block
	}
	return f, nil
}

// Versions returns the version blocks present in the file, sorted.
func (f *File) Versions() []Version {
	out := make([]Version, 0, len(f.versions))
	for v := range f.versions {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Baseline returns the expected policy sets for one version. A file with
// no block for the evaluated version fails with VERSION_MISMATCH rather
// than silently comparing against a wrong-version baseline.
func (f *File) Baseline(version Version) (map[Component]map[Category]Set, error) {
	block, ok := f.versions[version]
	if !ok {
		return nil, newError(CodeVersionMismatch, "baseline file %s has no block for version %s (found %v)",
			f.path, version, f.Versions())
	}
	return block, nil
}

// Set returns one expected policy set from the file. ok is false when the
// version block exists but does not cover the component or category.
func (f *File) Set(version Version, comp Component, cat Category) (Set, bool, error) {
	block, err := f.Baseline(version)
	if err != nil {
		return nil, false, err
	}
	cats, ok := block[comp]
	if !ok {
		return nil, false, nil
	}
	set, ok := cats[cat]
	return set, ok, nil
}

// DecodeSet parses one leaf object into the typed set for its category and
// verifies the decoded fields match the component's schema exactly.
func DecodeSet(comp Component, cat Category, leaf json.RawMessage) (Set, error) {
	var set Set
	var err error
	switch cat {
	case CategoryExpiration:
		var p ExpirationPolicy
		err = strictUnmarshal(leaf, &p)
		p.Comp = comp
		set = p
	case CategoryComplexity:
		var p ComplexityPolicy
		err = strictUnmarshal(leaf, &p)
		p.Comp = comp
		set = p
	case CategoryLockout:
		var p LockoutPolicy
		err = strictUnmarshal(leaf, &p)
		p.Comp = comp
		set = p
	default:
		return nil, newError(CodeParse, "unknown policy category %q for component %s", cat, comp)
	}
	if err != nil {
		return nil, wrapError(CodeParse, err, "malformed %s/%s policy object", comp, cat)
	}

	want, _ := schemaFields(comp, cat)
	got := set.Fields()
	if len(got) != len(want) {
		return nil, newError(CodeSchemaMismatch, "%s/%s policy object carries %d fields, schema defines %d (%v)",
			comp, cat, len(got), len(want), want)
	}
	wantSet := make(map[string]bool, len(want))
	for _, name := range want {
		wantSet[name] = true
	}
	for _, f := range got {
		if !wantSet[f.Name] {
			return nil, newError(CodeSchemaMismatch, "%s/%s policy object carries field %q outside its schema",
				comp, cat, f.Name)
		}
	}
	return set, nil
}

func strictUnmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Trailing garbage after the object is malformed input too.
	if dec.More() {
		return fmt.Errorf("unexpected trailing data")
	}
	return nil
}
