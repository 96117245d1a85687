package deployment

import (
	"errors"
	"strconv"
)

var (
	errMissingBuildNumber = errors.New("a build number is required (--build)")
	errNoPipelines        = errors.New("no matching pipelines to trigger")
	errInvalidInput       = errors.New("workflow inputs must be given as key=value")
)

func itoa64(v int64) string {
	return strconv.FormatInt(v, 10)
}
