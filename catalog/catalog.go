package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// Well-known condition identifiers referenced by the default scoring adjustments
const (
	CervicalDisc      = "cervical_disc"
	LumbarDisc        = "lumbar_disc"
	SpinalStenosis    = "spinal_stenosis"
	Spondylolisthesis = "spondylolisthesis"
	MyofascialPain    = "myofascial_pain"
	DegenerativeSpine = "degenerative_spine"
	AcuteStrain       = "acute_strain"
)

//go:embed conditions.yaml
var embeddedConditions []byte

// Catalog is the immutable, ordered table of scoreable conditions.
// A Catalog is safe for concurrent use; nothing mutates it after Load returns.
type Catalog struct {
	entries []*Condition
	index   map[string]int
}

type document struct {
	Conditions []*Condition `yaml:"conditions"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the catalog embedded in the binary, decoded once per process
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(bytes.NewReader(embeddedConditions))
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for program initialisation and tests
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("embedded condition catalog is invalid: %v", err))
	}
	return c
}

// LoadFile reads a catalog from a YAML file on disk
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes and validates a YAML catalog document
func Load(r io.Reader) (*Catalog, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	return New(doc.Conditions)
}

// New builds a catalog from entries in declaration order.
// The entries are copied, so later changes to the arguments are not observed.
func New(entries []*Condition) (*Catalog, error) {
	if err := Validate(entries); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	c := &Catalog{
		entries: make([]*Condition, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		c.entries = append(c.entries, e.clone())
		c.index[e.ID] = i
	}
	return c, nil
}

// Len returns the number of conditions
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns copies of all conditions in declaration order
func (c *Catalog) Entries() []*Condition {
	out := make([]*Condition, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.clone()
	}
	return out
}

// IDs returns the condition identifiers in declaration order
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.entries))
	for i, e := range c.entries {
		ids[i] = e.ID
	}
	return ids
}

// Get returns a copy of the condition with the given id
func (c *Catalog) Get(id string) (*Condition, error) {
	i, ok := c.index[id]
	if !ok {
		return nil, fmt.Errorf("condition %s not found", id)
	}
	return c.entries[i].clone(), nil
}
