package report

import (
	"fmt"
	"path/filepath"

	"github.com/owenrumney/go-sarif/v2/sarif"
	"github.com/praetorian-inc/logsift/pkg/types"
)

const (
	toolName = "logsift"
	toolURI  = "https://github.com/praetorian-inc/logsift"
)

// SARIFEmitter writes SARIF 2.1.0 reports.
type SARIFEmitter struct {
	Dir string
}

func (e *SARIFEmitter) Emit(result *types.ScanResult) (string, error) {
	if result.Empty() {
		return "", nil
	}

	doc, err := BuildSARIF([]*types.ScanResult{result})
	if err != nil {
		return "", err
	}

	path := Path(e.Dir, result.Path, ".sarif")
	f, err := create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := doc.PrettyWrite(f); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, f.Close()
}

// BuildSARIF converts scan results into a single-run SARIF report. Each
// fired rule of each record becomes one result; records tied to a line
// carry that line as their region.
func BuildSARIF(results []*types.ScanResult) (*sarif.Report, error) {
	doc, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("creating SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(toolName, toolURI)
	for _, result := range results {
		if result.Empty() {
			continue
		}
		uri := filepath.ToSlash(result.Path)

		for _, rec := range result.Records {
			for _, name := range rec.Rules {
				run.AddRule(name).WithName(name)

				loc := sarif.NewPhysicalLocation().WithArtifactLocation(sarif.NewSimpleArtifactLocation(uri))
				if rec.Line > 0 {
					loc = loc.WithRegion(sarif.NewSimpleRegion(rec.Line, rec.Line))
				}

				props := sarif.NewPropertyBag()
				props.Add("component", rec.Component)
				props.Add("content", rec.Content)
				props.Add("kind", result.Kind.String())
				if result.Grammar != "" {
					props.Add("grammar", result.Grammar)
				}

				res := run.CreateResultForRule(name).
					WithLevel("warning").
					WithMessage(sarif.NewTextMessage(message(name, rec)))
				res.AddLocation(sarif.NewLocationWithPhysicalLocation(loc))
				res.AttachPropertyBag(props)
			}
		}
	}

	doc.AddRun(run)
	return doc, nil
}

func message(rule string, rec types.MatchRecord) string {
	if rec.Component == types.NotApplicable {
		return fmt.Sprintf("%s matched", rule)
	}
	return fmt.Sprintf("%s matched in %s: %s", rule, rec.Component, rec.Content)
}
