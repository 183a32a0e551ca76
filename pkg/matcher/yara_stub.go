//go:build !cgo || !yara

package matcher

import (
	"fmt"
	"time"
)

// NewYara stub for builds without libyara (non-CGO or missing yara tag).
func NewYara(path string, timeout time.Duration) (Matcher, error) {
	return nil, fmt.Errorf("YARA rules require CGO (build with CGO_ENABLED=1 and -tags=yara)")
}
