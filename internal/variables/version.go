package variables

import (
	"strconv"
	"strings"

	"bundlecore/internal/model"
	"bundlecore/pkg/errors"
)

// ParseVersion parses a literal of the form "v<up-to-four-dot-separated
// 0..65535>" per §4.1's condition grammar, or a bare dotted version without
// the "v" prefix (used when coercing a string variable).
func ParseVersion(s string) (model.Version, error) {
	s = strings.TrimPrefix(s, "v")
	if s == "" {
		return model.Version{}, errors.New(errors.KindInvalidCondition, "empty version literal")
	}
	parts := strings.Split(s, ".")
	if len(parts) > 4 {
		return model.Version{}, errors.New(errors.KindInvalidCondition, "version %q has more than four fields", s)
	}
	var v model.Version
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil || n > 65535 {
			return model.Version{}, errors.New(errors.KindInvalidCondition, "version field %q out of range", p)
		}
		v[i] = uint16(n)
	}
	return v, nil
}
