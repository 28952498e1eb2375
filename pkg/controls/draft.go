package controls

import "encoding/json"

// Draft marks text typed into a json control that does not parse yet. It keeps
// the raw input so the control can redisplay it, while validation can tell an
// unfinished edit apart from an intentional string value.
type Draft struct {
	Raw string
}

// MarshalJSON encodes a draft as its raw text.
func (d Draft) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Raw)
}

// AsDraft reports whether value is a pending json edit.
func AsDraft(value any) (Draft, bool) {
	switch v := value.(type) {
	case Draft:
		return v, true
	case *Draft:
		if v == nil {
			return Draft{}, false
		}
		return *v, true
	}
	return Draft{}, false
}
