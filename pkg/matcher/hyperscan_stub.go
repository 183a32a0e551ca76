//go:build !cgo || !hyperscan

package matcher

import (
	"fmt"

	"github.com/praetorian-inc/logsift/pkg/types"
)

// NewHyperscan stub for builds without Hyperscan (non-CGO or missing hyperscan tag).
func NewHyperscan(rules []*types.Rule) (Matcher, error) {
	return nil, fmt.Errorf("Hyperscan requires CGO (build with CGO_ENABLED=1 and -tags=hyperscan)")
}
