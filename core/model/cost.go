package model

// CostType distinguishes the two cost document shapes accepted by scenario
// documents (§6).
type CostType int

const (
	CostFixed CostType = iota
	CostPolynomial
)

// Cost evaluates to a price (ct/kWh or EUR/kWh, consistent per scenario) as
// a function of the grid connector's current load.
type Cost struct {
	Type  CostType
	Value []float64 // single fixed value, or polynomial coefficients [a0,a1,...]
}

// FixedCost returns a Cost that always evaluates to value.
func FixedCost(value float64) Cost {
	return Cost{Type: CostFixed, Value: []float64{value}}
}

// PolynomialCost returns a Cost evaluated by Horner's method on the GC load,
// term 0 being the constant, term 1 linear in kW, and so on.
func PolynomialCost(coeffs ...float64) Cost {
	return Cost{Type: CostPolynomial, Value: append([]float64(nil), coeffs...)}
}

// At evaluates the cost at the given grid-connector load (kW).
func (c Cost) At(loadKW float64) float64 {
	switch c.Type {
	case CostFixed:
		if len(c.Value) == 0 {
			return 0
		}
		return c.Value[0]
	case CostPolynomial:
		return hornerEval(c.Value, loadKW)
	default:
		return 0
	}
}

// hornerEval evaluates a polynomial with coefficients ordered from the
// constant term upward, using Horner's method.
func hornerEval(coeffs []float64, x float64) float64 {
	var result float64
	for i := len(coeffs) - 1; i >= 0; i-- {
		result = result*x + coeffs[i]
	}
	return result
}
