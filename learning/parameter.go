// Package learning implements the parameter buffers and the optimizer of the translation models
package learning

// Parameter is a named trainable buffer and its gradient
type Parameter struct {
	Name string
	Data []float64
	Grad []float64
}

// NewParameter allocates a zeroed parameter of n values
func NewParameter(name string, n int) *Parameter {
	return &Parameter{Name: name, Data: make([]float64, n), Grad: make([]float64, n)}
}

// Len returns the number of values
func (p *Parameter) Len() int {
	return len(p.Data)
}

// ZeroGrad clears the gradient
func (p *Parameter) ZeroGrad() {
	for i := range p.Grad {
		p.Grad[i] = 0
	}
}

// Loss is the scalar objective of one forward pass
type Loss interface {
	Value() float64
	// Backward accumulates the gradients of the loss into the parameters
	Backward() error
}
