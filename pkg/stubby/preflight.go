package stubby

import (
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// Preflight checks the stubs file in the background while the factory
// prepares the server. It only checks that the file is a YAML list; what the
// stubs mean is stubby's business.
type Preflight struct {
	g     errgroup.Group
	path  string
	stubs int
}

// StartPreflight begins checking path on a single background worker.
func StartPreflight(path string) *Preflight {
	p := &Preflight{path: path}
	p.g.SetLimit(1)
	p.g.Go(p.check)
	return p
}

// Wait blocks until the check finishes and returns the number of top-level
// stub entries (or included files). A nil Preflight reports zero stubs and no error.
func (p *Preflight) Wait() (int, error) {
	if p == nil {
		return 0, nil
	}
	if err := p.g.Wait(); err != nil {
		return 0, err
	}
	return p.stubs, nil
}

func (p *Preflight) check() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("failed to read stubs file: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("stubs file %s is not valid YAML: %w", p.path, err)
	}
	if len(doc.Content) == 0 {
		return fmt.Errorf("stubs file %s is empty", p.path)
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		p.stubs = len(root.Content)
		return nil
	case yaml.MappingNode:
		// A top-level "includes" list points at further stub files.
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == "includes" && root.Content[i+1].Kind == yaml.SequenceNode {
				p.stubs = len(root.Content[i+1].Content)
				return nil
			}
		}
	}
	return fmt.Errorf("stubs file %s: expected a list of stubs or includes at line %d", p.path, root.Line)
}
