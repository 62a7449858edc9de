package prompts

import (
	"fmt"
	"io"
	"os"
	"strings"

	types "github.com/yungbote/cvextract/internal/domain"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Prompts []*types.Prompt `yaml:"prompts"`
}

// LoadSeed reads prompt definitions from a YAML document of the form
// "prompts: [{name, version, category, content}]".
func LoadSeed(r io.Reader) ([]*types.Prompt, error) {
	var sf seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode prompt seed: %w", err)
	}
	seen := map[exactKey]bool{}
	for i, p := range sf.Prompts {
		if p == nil {
			return nil, fmt.Errorf("prompt %d: empty entry", i)
		}
		p.Name = strings.TrimSpace(p.Name)
		p.Category = strings.TrimSpace(p.Category)
		if p.Name == "" {
			return nil, fmt.Errorf("prompt %d: name required", i)
		}
		if p.Version < 1 {
			return nil, fmt.Errorf("prompt %q: version must be >= 1", p.Name)
		}
		if strings.TrimSpace(p.Content) == "" {
			return nil, fmt.Errorf("prompt %q v%d: content required", p.Name, p.Version)
		}
		k := exactKey{name: p.Name, version: p.Version}
		if seen[k] {
			return nil, fmt.Errorf("prompt %q v%d: duplicate entry", p.Name, p.Version)
		}
		seen[k] = true
	}
	return sf.Prompts, nil
}

func LoadSeedFile(path string) ([]*types.Prompt, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadSeed(f)
}
