// Package source defines the data-source contract the engine consumes.
// A DataSource answers dimension, variable, attribute, and raw-value
// queries; how the bytes get decoded is the backend's business.
package source

// Dimension describes one axis of a dataset.
type Dimension struct {
	Name       string
	Size       int
	Attributes map[string]string
}

// Variable describes a named array varying over some dimensions.
type Variable struct {
	Name       string
	Dimensions []string
	Attributes map[string]string
}

// Sequence is an indexable numeric sequence of decoded values.
type Sequence interface {
	Len() int
	At(i int) float64
}

// DataSource answers metadata and raw-value queries for one dataset.
type DataSource interface {
	// Dimensions lists the dataset's axes.
	Dimensions() ([]Dimension, error)
	// Variables lists the dataset's arrays.
	Variables() ([]Variable, error)
	// Attribute returns a global attribute, or "" when absent.
	Attribute(name string) string
	// Values reads a variable fixed at the given leading indices, one
	// value per remaining free dimension element.
	Values(variable string, indices ...int) (Sequence, error)
	// VariableValues reads the first length values of a variable,
	// typically a coordinate variable.
	VariableValues(variable string, length int) (Sequence, error)
}

// Float64s adapts a []float64 to Sequence.
type Float64s []float64

// Len returns the number of values.
func (f Float64s) Len() int { return len(f) }

// At returns the i-th value.
func (f Float64s) At(i int) float64 { return f[i] }
