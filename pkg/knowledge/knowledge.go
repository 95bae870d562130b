// Package knowledge holds the static data the Sorting Hat reasons with: the
// house trait table, the pool of worked examples and the narrator's voice.
// A Base is built once at startup and only read afterwards.
package knowledge

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/flowbaker/sortinghat/pkg/domain"
	"gopkg.in/yaml.v3"
)

const (
	categoriesFile = "categories.yaml"
	examplesFile   = "examples.yaml"
	voiceFile      = "voice.yaml"
)

//go:embed data/*.yaml
var embedded embed.FS

// CategoryTraits describes a single house.
type CategoryTraits struct {
	Name        string   `yaml:"name" json:"name"`
	Founder     string   `yaml:"founder" json:"founder"`
	Element     string   `yaml:"element" json:"element"`
	Animal      string   `yaml:"animal" json:"animal"`
	Colors      []string `yaml:"colors" json:"colors"`
	Traits      []string `yaml:"traits" json:"traits"`
	Values      string   `yaml:"values" json:"values"`
	Description string   `yaml:"description" json:"description"`
}

// Voice is the narrator style guidance embedded verbatim into prompts.
type Voice struct {
	Guidelines     string   `yaml:"voiceGuidelines"`
	Personality    []string `yaml:"personality"`
	SpeechPatterns []string `yaml:"speechPatterns"`
}

type Base struct {
	traits   map[domain.Category]CategoryTraits
	examples []domain.WorkedExample
	voice    Voice
}

// Load reads the knowledge files from dir, or from the embedded defaults when dir is empty.
func Load(dir string) (*Base, error) {
	if dir == "" {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			return nil, err
		}
		return LoadFS(sub)
	}

	return LoadFS(os.DirFS(dir))
}

func LoadFS(fsys fs.FS) (*Base, error) {
	var rawTraits map[string]CategoryTraits
	if err := readYAML(fsys, categoriesFile, &rawTraits); err != nil {
		return nil, err
	}

	var examples []domain.WorkedExample
	if err := readYAML(fsys, examplesFile, &examples); err != nil {
		return nil, err
	}

	var voice Voice
	if err := readYAML(fsys, voiceFile, &voice); err != nil {
		return nil, err
	}

	return New(rawTraits, examples, voice)
}

// New validates and assembles a Base. Category keys and example categories are canonicalized.
func New(rawTraits map[string]CategoryTraits, examples []domain.WorkedExample, voice Voice) (*Base, error) {
	traits := make(map[domain.Category]CategoryTraits, len(rawTraits))
	for key, t := range rawTraits {
		category, err := domain.ParseCategory(key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", categoriesFile, err)
		}
		traits[category] = t
	}

	for _, category := range domain.AllCategories {
		if _, ok := traits[category]; !ok {
			return nil, fmt.Errorf("%s: missing traits for %s", categoriesFile, category)
		}
	}

	pool := make([]domain.WorkedExample, len(examples))
	for i, ex := range examples {
		category, err := domain.ParseCategory(string(ex.Category))
		if err != nil {
			return nil, fmt.Errorf("%s: example %d: %w", examplesFile, i, err)
		}
		ex.Category = category
		pool[i] = ex
	}

	if voice.Guidelines == "" {
		return nil, errors.New(voiceFile + ": voiceGuidelines must not be empty")
	}

	return &Base{
		traits:   traits,
		examples: pool,
		voice:    voice,
	}, nil
}

func readYAML(fsys fs.FS, name string, out any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}

	return nil
}

// Traits returns the trait table keyed by canonical category name.
func (b *Base) Traits() map[domain.Category]CategoryTraits {
	out := make(map[domain.Category]CategoryTraits, len(b.traits))
	for k, v := range b.traits {
		out[k] = v
	}
	return out
}

// Examples returns a copy of the worked example pool.
func (b *Base) Examples() []domain.WorkedExample {
	out := make([]domain.WorkedExample, len(b.examples))
	copy(out, b.examples)
	return out
}

func (b *Base) ExampleCount() int {
	return len(b.examples)
}

func (b *Base) Voice() Voice {
	v := b.voice
	v.Personality = append([]string(nil), b.voice.Personality...)
	v.SpeechPatterns = append([]string(nil), b.voice.SpeechPatterns...)
	return v
}
