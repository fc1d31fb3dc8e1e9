package hwinfo

import "strconv"

// Count is a figure that a driver or the capability table may not know.
type Count struct {
	N     int
	Known bool
}

// Unknown is the explicit marker for a figure that could not be determined.
var Unknown = Count{}

func Known(n int) Count { return Count{N: n, Known: true} }

// Mul multiplies two counts; the product is Unknown if either factor is.
func (c Count) Mul(o Count) Count {
	if !c.Known || !o.Known {
		return Unknown
	}
	return Known(c.N * o.N)
}

func (c Count) String() string {
	if !c.Known {
		return "Unknown"
	}
	return strconv.Itoa(c.N)
}
