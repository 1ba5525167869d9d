package bootspec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

const (
	// V1Key is the top level key holding the boot specification v1 object.
	V1Key = "org.nixos.bootspec.v1"
	// SpecialisationKey holds the named specialisations of a generation.
	SpecialisationKey = "org.nixos.specialisation.v1"
)

// BootJSON is the content of the org.nixos.bootspec.v1 object.
// Keys this package does not know about are kept in Extra and written back
// on marshal.
type BootJSON struct {
	System        string   `json:"system"`
	Init          string   `json:"init"`
	Initrd        *string  `json:"initrd,omitempty"`
	InitrdSecrets *string  `json:"initrdSecrets,omitempty"`
	Kernel        string   `json:"kernel"`
	KernelParams  []string `json:"kernelParams"`
	Label         string   `json:"label"`
	Toplevel      string   `json:"toplevel"`

	Extra map[string]json.RawMessage `json:"-"`
}

// bootJSONFields lets (un)marshalling use the default encoding of BootJSON.
type bootJSONFields BootJSON

func (b *BootJSON) UnmarshalJSON(data []byte) error {
	var fields bootJSONFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, known := range knownV1Keys() {
		delete(raw, known)
	}
	extra, err := compactRaw(raw)
	if err != nil {
		return err
	}
	*b = BootJSON(fields)
	b.Extra = extra
	return nil
}

func (b BootJSON) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(bootJSONFields(b))
	if err != nil {
		return nil, err
	}
	if len(b.Extra) == 0 {
		return data, nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for k, v := range b.Extra {
		if _, known := out[k]; !known {
			out[k] = v
		}
	}
	return json.Marshal(out)
}

func knownV1Keys() []string {
	return []string{"system", "init", "initrd", "initrdSecrets", "kernel", "kernelParams", "label", "toplevel"}
}

// Bootspec is a boot specification v1 document. Besides the v1 object it
// carries the specialisations of the generation and any extension objects
// (e.g. "org.nixos.systemd-boot"), which are kept as raw JSON.
type Bootspec struct {
	V1 BootJSON
	// Specialisations is nil when the document has no specialisation object.
	Specialisations map[string]*Bootspec
	Extensions      map[string]json.RawMessage
}

func (b *Bootspec) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	v1, ok := raw[V1Key]
	if !ok {
		return fmt.Errorf("missing %s object", V1Key)
	}
	var out Bootspec
	if err := json.Unmarshal(v1, &out.V1); err != nil {
		return fmt.Errorf("decoding %s: %w", V1Key, err)
	}
	delete(raw, V1Key)

	if spec, ok := raw[SpecialisationKey]; ok {
		out.Specialisations = map[string]*Bootspec{}
		if err := json.Unmarshal(spec, &out.Specialisations); err != nil {
			return fmt.Errorf("decoding %s: %w", SpecialisationKey, err)
		}
		delete(raw, SpecialisationKey)
	}

	ext, err := compactRaw(raw)
	if err != nil {
		return err
	}
	out.Extensions = ext
	*b = out
	return nil
}

func (b Bootspec) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(b.Extensions)+2)
	for k, v := range b.Extensions {
		out[k] = v
	}

	v1, err := json.Marshal(b.V1)
	if err != nil {
		return nil, err
	}
	out[V1Key] = v1

	if b.Specialisations != nil {
		spec, err := json.Marshal(b.Specialisations)
		if err != nil {
			return nil, err
		}
		out[SpecialisationKey] = spec
	}
	return json.Marshal(out)
}

// SpecialisationNames returns the names of the specialisations, sorted.
func (b *Bootspec) SpecialisationNames() []string {
	if b == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(b.Specialisations))
}

// Clone returns a deep copy of b. Changing the copy never affects b.
func (b *Bootspec) Clone() *Bootspec {
	if b == nil {
		return nil
	}
	c := &Bootspec{
		V1:         b.V1.clone(),
		Extensions: cloneRaw(b.Extensions),
	}
	if b.Specialisations != nil {
		c.Specialisations = make(map[string]*Bootspec, len(b.Specialisations))
		for name, s := range b.Specialisations {
			c.Specialisations[name] = s.Clone()
		}
	}
	return c
}

func (b BootJSON) clone() BootJSON {
	c := b
	if b.KernelParams != nil {
		c.KernelParams = slices.Clone(b.KernelParams)
	}
	c.Initrd = cloneString(b.Initrd)
	c.InitrdSecrets = cloneString(b.InitrdSecrets)
	c.Extra = cloneRaw(b.Extra)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// InitrdPath returns the initrd path, empty when the system boots without one.
func (b BootJSON) InitrdPath() string {
	if b.Initrd == nil {
		return ""
	}
	return *b.Initrd
}

// compactRaw drops insignificant whitespace so that documents decoded from
// differently formatted input compare equal. Empty maps become nil.
func compactRaw(m map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return nil, err
		}
		out[k] = buf.Bytes()
	}
	return out, nil
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	c := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		c[k] = bytes.Clone(v)
	}
	return c
}

// Equal reports whether b and o describe the same document.
func (b *Bootspec) Equal(o *Bootspec) bool {
	return reflect.DeepEqual(b, o)
}
