package source

import "fmt"

// MemorySource is an in-memory DataSource. It backs the demo binary's
// synthetic datasets and the engine tests; a real file backend implements
// the same interface.
type MemorySource struct {
	dims  []Dimension
	vars  []Variable
	attrs map[string]string
	data  map[string][]float64 // flat row-major per variable
}

// NewMemorySource creates an empty in-memory dataset.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		attrs: make(map[string]string),
		data:  make(map[string][]float64),
	}
}

// SetAttribute sets a global attribute.
func (m *MemorySource) SetAttribute(name, value string) {
	m.attrs[name] = value
}

// AddDimension appends a dimension.
func (m *MemorySource) AddDimension(name string, size int, attrs map[string]string) {
	m.dims = append(m.dims, Dimension{Name: name, Size: size, Attributes: attrs})
}

// AddVariable appends a variable with its flat row-major data. The data
// length must be the product of the named dimensions' sizes.
func (m *MemorySource) AddVariable(name string, dims []string, attrs map[string]string, data []float64) error {
	want := 1
	for _, d := range dims {
		dim, ok := m.dimension(d)
		if !ok {
			return fmt.Errorf("source: variable %q references unknown dimension %q", name, d)
		}
		want *= dim.Size
	}
	if len(data) != want {
		return fmt.Errorf("source: variable %q has %d values, want %d", name, len(data), want)
	}
	m.vars = append(m.vars, Variable{Name: name, Dimensions: dims, Attributes: attrs})
	m.data[name] = data
	return nil
}

// MustAddVariable is AddVariable panicking on error, for dataset literals.
func (m *MemorySource) MustAddVariable(name string, dims []string, attrs map[string]string, data []float64) {
	if err := m.AddVariable(name, dims, attrs, data); err != nil {
		panic(err)
	}
}

func (m *MemorySource) dimension(name string) (Dimension, bool) {
	for _, d := range m.dims {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

func (m *MemorySource) variable(name string) (Variable, bool) {
	for _, v := range m.vars {
		if v.Name == name {
			return v, true
		}
	}
	return Variable{}, false
}

// Dimensions lists the dataset's axes.
func (m *MemorySource) Dimensions() ([]Dimension, error) {
	return m.dims, nil
}

// Variables lists the dataset's arrays.
func (m *MemorySource) Variables() ([]Variable, error) {
	return m.vars, nil
}

// Attribute returns a global attribute, or "" when absent.
func (m *MemorySource) Attribute(name string) string {
	return m.attrs[name]
}

// Values reads a variable fixed at the given leading indices. The returned
// sequence covers the block spanned by the remaining free dimensions.
func (m *MemorySource) Values(variable string, indices ...int) (Sequence, error) {
	v, ok := m.variable(variable)
	if !ok {
		return nil, fmt.Errorf("source: no variable %q", variable)
	}
	if len(indices) > len(v.Dimensions) {
		return nil, fmt.Errorf("source: variable %q has %d dimensions, got %d indices",
			variable, len(v.Dimensions), len(indices))
	}

	// Block length of the free (trailing) dimensions.
	blockLen := 1
	for _, d := range v.Dimensions[len(indices):] {
		dim, _ := m.dimension(d)
		blockLen *= dim.Size
	}

	// Offset of the fixed (leading) indices.
	offset := 0
	stride := blockLen
	for k := len(indices) - 1; k >= 0; k-- {
		dim, _ := m.dimension(v.Dimensions[k])
		if indices[k] < 0 || indices[k] >= dim.Size {
			return nil, fmt.Errorf("source: index %d out of range for dimension %q (size %d)",
				indices[k], dim.Name, dim.Size)
		}
		offset += indices[k] * stride
		stride *= dim.Size
	}

	data := m.data[variable]
	return Float64s(data[offset : offset+blockLen]), nil
}

// VariableValues reads the first length values of a variable.
func (m *MemorySource) VariableValues(variable string, length int) (Sequence, error) {
	data, ok := m.data[variable]
	if !ok {
		return nil, fmt.Errorf("source: no variable %q", variable)
	}
	if length < 0 || length > len(data) {
		return nil, fmt.Errorf("source: variable %q has %d values, asked for %d",
			variable, len(data), length)
	}
	return Float64s(data[:length]), nil
}
