package dispatch

import (
	"reflect"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrIncomparablePriority is the ordering failure raised (as a panic) when
// two handler priorities cannot be compared. It surfaces from whichever
// call sorts first, registration or dispatch.
var ErrIncomparablePriority = eris.New("incomparable handler priorities")

// Comparable lets a custom priority type define its own total order against
// the other priorities it will be registered alongside. ComparePriority
// returns <0, 0, or >0 as the receiver sorts before, equal to, or after
// other.
type Comparable interface {
	ComparePriority(other any) int
}

// comparePriority totally orders two priority values. Numbers compare
// numerically across integer and float kinds, strings lexicographically,
// and anything else must implement Comparable on at least one side.
// Incomparable pairs panic with ErrIncomparablePriority.
func comparePriority(a, b any) int {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs)
		}
	}
	if ac, ok := a.(Comparable); ok {
		return ac.ComparePriority(b)
	}
	if bc, ok := b.(Comparable); ok {
		return -bc.ComparePriority(a)
	}
	panic(eris.Wrapf(ErrIncomparablePriority, "%T vs %T", a, b))
}

func toFloat(p any) (float64, bool) {
	v := reflect.ValueOf(p)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return 0, false
	}
}

// samePriority reports whether two priority values are the identical value,
// used only for the handler sharing optimization at registration. It never
// panics: values of non-comparable types simply do not share.
func samePriority(a, b any) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}
