// Package overrides holds human-maintained corrections to inferred types.
//
// The patch file is YAML with two top-level mappings:
//
//	path:
//	  "/admin/realms/{realm}/users:get:":
//	    from_type: TypeVec<UserRepresentation>
//	    rust_type: TypeVec<UserRepresentation>
//	    method: json
//	type:
//	  "UserRepresentation:attributes":
//	    rust_type: TypeMap<String, TypeVec<TypeString>>
//
// Entries that become redundant during a run are collected and removed from
// the file in a single rewrite by Save, after every lookup has completed.
package overrides

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	sectionPath = "path"
	sectionType = "type"
)

// PathOverride corrects the type of one parameter of an operation, or its
// result when the parameter segment of the key is empty.
type PathOverride struct {
	// FromType is the type inference produced when the entry was written
	FromType string `yaml:"from_type"`
	RustType string `yaml:"rust_type"`
	// Method replaces the response body extraction call (json, text, bytes)
	Method string `yaml:"method,omitempty"`
	// Convert is appended after the extraction future is awaited
	Convert string `yaml:"convert,omitempty"`
}

// FieldOverride corrects the type of one struct field.
type FieldOverride struct {
	RustType string `yaml:"rust_type"`
	FromType string `yaml:"from_type,omitempty"`
}

type patchFile struct {
	Path map[string]PathOverride  `yaml:"path"`
	Type map[string]FieldOverride `yaml:"type"`
}

type entry struct {
	section string
	key     string
}

// Store is the loaded patch file. It is not safe for concurrent use.
type Store struct {
	filename string
	doc      *yaml.Node
	paths    map[string]PathOverride
	fields   map[string]FieldOverride
	pruned   []entry
	logger   *slog.Logger
}

// PathKey builds the lookup key for an operation parameter; an empty param addresses the result.
func PathKey(route, method, param string) string {
	return route + ":" + method + ":" + param
}

// FieldKey builds the lookup key for a struct field
func FieldKey(structName, field string) string {
	return structName + ":" + field
}

// New returns an empty store that is not backed by a file.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		paths:  map[string]PathOverride{},
		fields: map[string]FieldOverride{},
		logger: logger,
	}
}

// Load reads and parses the patch file at filename. A file that cannot be
// read or parsed is an error; an empty file yields an empty store.
func Load(filename string, logger *slog.Logger) (*Store, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read overrides: %w", err)
	}
	s, err := Parse(data, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	s.filename = filename
	return s, nil
}

// Parse builds a store from patch file contents
func Parse(data []byte, logger *slog.Logger) (*Store, error) {
	s := New(logger)

	var f patchFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		return nil, fmt.Errorf("parse overrides: %w", err)
	}

	for key, o := range f.Path {
		if o.FromType == "" || o.RustType == "" {
			return nil, fmt.Errorf("parse overrides: path %q: from_type and rust_type are required", key)
		}
		s.paths[key] = o
	}
	for key, o := range f.Type {
		if o.RustType == "" {
			return nil, fmt.Errorf("parse overrides: type %q: rust_type is required", key)
		}
		s.fields[key] = o
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	s.doc = &doc
	return s, nil
}

// Path returns the override for an operation parameter, without any staleness check.
func (s *Store) Path(route, method, param string) (PathOverride, bool) {
	o, ok := s.paths[PathKey(route, method, param)]
	return o, ok
}

// Field returns the override for a struct field, without any staleness check.
func (s *Store) Field(structName, field string) (FieldOverride, bool) {
	o, ok := s.fields[FieldKey(structName, field)]
	return o, ok
}

// ResolvePath looks up the override for an operation parameter (or result,
// with an empty param) and checks it against the freshly inferred type.
// When the recorded from_type no longer matches, the entry is either
// scheduled for pruning (its rust_type now equals inference and it carries
// no custom extraction) or reported as drift. Absence is not an error.
func (s *Store) ResolvePath(route, method, param, inferred string) (PathOverride, bool) {
	key := PathKey(route, method, param)
	o, ok := s.paths[key]
	if !ok {
		return PathOverride{}, false
	}
	if o.FromType != inferred {
		if o.RustType == inferred && o.Method == "" && o.Convert == "" {
			s.prune(sectionPath, key)
		} else {
			s.logger.Warn("override type info changed",
				"key", key, "was", o.FromType, "now", inferred, "mapped", o.RustType)
		}
	}
	return o, true
}

// ResolveField returns the corrected type for a struct field. Candidate
// field names are tried in order (derived identifier first, then the
// original spelling). An entry that merely restates inference is scheduled
// for pruning.
func (s *Store) ResolveField(structName string, names []string, inferred string) (string, bool) {
	for _, name := range names {
		key := FieldKey(structName, name)
		o, ok := s.fields[key]
		if !ok {
			continue
		}
		switch {
		case o.RustType == inferred:
			s.prune(sectionType, key)
		case o.FromType != "" && o.FromType != inferred:
			s.logger.Warn("override type info changed",
				"key", key, "was", o.FromType, "now", inferred, "mapped", o.RustType)
		}
		return o.RustType, true
	}
	return "", false
}

func (s *Store) prune(section, key string) {
	for _, e := range s.pruned {
		if e.section == section && e.key == key {
			return
		}
	}
	s.pruned = append(s.pruned, entry{section: section, key: key})
	s.logger.Debug("override is redundant", "section", section, "key", key)
}

// Pruned returns the keys scheduled for removal, in the order they were found.
func (s *Store) Pruned() []string {
	keys := make([]string, 0, len(s.pruned))
	for _, e := range s.pruned {
		keys = append(keys, e.key)
	}
	return keys
}

// Bytes renders the patch file with every pruned entry removed.
func (s *Store) Bytes() ([]byte, error) {
	if s.doc == nil || len(s.doc.Content) == 0 {
		return nil, nil
	}
	root := s.doc.Content[0]
	for _, e := range s.pruned {
		removeKey(mappingValue(root, e.section), e.key)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s.doc); err != nil {
		return nil, fmt.Errorf("encode overrides: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode overrides: %w", err)
	}
	return buf.Bytes(), nil
}

// Save rewrites the backing file once if any entry was pruned. Concurrent
// runs against the same file are not coordinated.
func (s *Store) Save() error {
	if len(s.pruned) == 0 || s.filename == "" {
		return nil
	}
	data, err := s.Bytes()
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.filename, data); err != nil {
		return fmt.Errorf("write overrides: %w", err)
	}
	s.logger.Info("pruned redundant overrides", "file", s.filename, "count", len(s.pruned))
	return nil
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}

func removeKey(n *yaml.Node, key string) {
	if n == nil || n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			n.Content = append(n.Content[:i], n.Content[i+2:]...)
			return
		}
	}
}

func writeFileAtomic(filename string, data []byte) error {
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(filename); err == nil {
		mode = fi.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(filename), "."+filepath.Base(filename)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filename)
}
