package fixtures

import (
	"fmt"

	"github.com/flanksource/clicky"
	"github.com/flanksource/clicky/api"
	"github.com/sourcegraph/conc/iter"
)

// CaseInfo is a case together with what loading its fixtures produced.
type CaseInfo struct {
	Case
	Keys  []string `json:"keys,omitempty"`
	Error string   `json:"error,omitempty"`
}

func (c CaseInfo) Pretty() api.Text {
	if c.Error != "" {
		return clicky.Text("✗ ", "text-red-600").Append(c.Dir, "font-bold").Space().Append(c.Error, "text-red-600")
	}
	return clicky.Text("✓ ", "text-green-600").Append(c.Dir, "font-bold").Space().Append(clicky.CompactList(c.Keys), "text-gray-500")
}

// Suite is the inventory of a case root: the shared root fixtures and each case.
type Suite struct {
	Root     string     `json:"root"`
	RootKeys []string   `json:"root_keys,omitempty"`
	Cases    []CaseInfo `json:"cases"`
}

// Failed counts cases whose fixtures could not be loaded
func (s Suite) Failed() int {
	n := 0
	for _, c := range s.Cases {
		if c.Error != "" {
			n++
		}
	}
	return n
}

func (s Suite) Pretty() api.Text {
	t := clicky.Text(s.Root, "text-blue-600 font-bold").
		Append(fmt.Sprintf(" (%d cases)", len(s.Cases)), "text-gray-500")
	if len(s.RootKeys) > 0 {
		t = t.NewLine().Append("  shared: ", "text-muted").Append(clicky.CompactList(s.RootKeys), "text-gray-500")
	}
	for _, c := range s.Cases {
		t = t.NewLine().Append("  ").Add(c.Pretty())
	}
	return t
}

// Scan discovers the cases under root and loads every fixture without running anything.
// Cases are loaded concurrently. Load failures are recorded per case rather than returned.
func Scan(root, filter string) (*Suite, error) {
	cases, err := Discover(root, filter)
	if err != nil {
		return nil, err
	}

	rootData, err := ReadCaseData(root, "")
	if err != nil {
		return nil, err
	}

	loader := Loader{TemplateData: rootData}
	infos := iter.Map(cases, func(c *Case) CaseInfo {
		info := CaseInfo{Case: *c}
		data, err := loader.ReadCaseData(root, c.Dir)
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Keys = data.Keys()
		}
		return info
	})
	return &Suite{Root: root, RootKeys: rootData.Keys(), Cases: infos}, nil
}
