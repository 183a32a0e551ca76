package grammar

// Groups locates the component and content capture groups of a grammar.
type Groups struct {
	Component int
	Content   int
}

// knownGroups is the fixed extraction table. The hpc entry points at the
// flag column rather than the component column; reports built from hpc
// logs have always carried it that way.
var knownGroups = map[string]Groups{
	"android": {Component: 5, Content: 6},
	"apache":  {Component: 2, Content: 3},
	"hadoop":  {Component: 3, Content: 4},
	"hdfs":    {Component: 3, Content: 4},
	"hpc":     {Component: 6, Content: 7},
	"linux":   {Component: 2, Content: 3},
	"mac":     {Component: 3, Content: 4},
	"openssh": {Component: 2, Content: 3},
	"spark":   {Component: 3, Content: 4},
	"windows": {Component: 4, Content: 5},
}

// GroupsFor returns the extraction groups for a grammar name.
func GroupsFor(name string) (Groups, bool) {
	g, ok := knownGroups[name]
	return g, ok
}
