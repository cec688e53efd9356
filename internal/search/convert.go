package search

import (
	"strconv"

	"bundlecore/internal/model"
	"bundlecore/internal/variables"
)

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

func parseVersion(s string) (model.Version, error) {
	return variables.ParseVersion(s)
}
