package transform

import (
	"fmt"
	"maps"

	"github.com/flowbaker/sortinghat/pkg/domain"
)

const (
	gryffindorStyle = `in the style of a cinematic Harry Potter movie scene. The subject is in the Gryffindor common room, surrounded by: rich scarlet red and gold colors, a cozy roaring fireplace, crimson velvet armchairs, golden lion emblems, Gryffindor banners, warm magical lighting, golden sparkles, heroic and brave atmosphere. Photorealistic, cinematic lighting, high detail, dramatic composition.`

	hufflepuffStyle = `in the style of a cinematic Harry Potter movie scene. The subject is in the Hufflepuff common room near the kitchens, surrounded by: warm yellow and black colors, cozy underground space with honey-colored lighting, comfortable round furniture with yellow cushions, badger emblems, Hufflepuff banners, plants and flowers, earthy natural elements, warm and friendly atmosphere. Photorealistic, cinematic lighting, high detail, cozy composition.`

	ravenclawStyle = `in the style of a cinematic Harry Potter movie scene. The subject is in the Ravenclaw tower library, surrounded by: deep blue and bronze colors, tall arched windows showing starry night sky, endless bookshelves with ancient tomes, eagle emblems, Ravenclaw banners, celestial elements like stars and moons, wise and mystical atmosphere, bronze sparkles. Photorealistic, cinematic lighting, high detail, ethereal composition.`

	slytherinStyle = `in the style of a cinematic Harry Potter movie scene. The subject is in the Slytherin dungeon common room, surrounded by: deep emerald green and silver colors, underwater lake views through windows, dark stone walls with green ambient lighting, silver serpent emblems, Slytherin banners, mysterious shadows, elegant furniture, ambitious and powerful atmosphere. Photorealistic, cinematic lighting, high detail, moody composition.`
)

// editInstruction prefixes the style template when the provider restyles an existing image.
const editInstruction = "Transform this image, keeping the main subject recognizable, "

// DefaultStyleTemplates returns a fresh copy of the built-in per-category style prompts.
func DefaultStyleTemplates() map[domain.Category]string {
	return map[domain.Category]string{
		domain.CategoryGryffindor: gryffindorStyle,
		domain.CategoryHufflepuff: hufflepuffStyle,
		domain.CategoryRavenclaw:  ravenclawStyle,
		domain.CategorySlytherin:  slytherinStyle,
	}
}

// styleTemplates is the private template table owned by a single strategy.
type styleTemplates map[domain.Category]string

// newStyleTemplates copies templates and checks that every category is covered.
func newStyleTemplates(templates map[domain.Category]string) (styleTemplates, error) {
	if templates == nil {
		templates = DefaultStyleTemplates()
	}

	for _, category := range domain.AllCategories {
		if templates[category] == "" {
			return nil, fmt.Errorf("%w: no style template for %s", domain.ErrUnsupportedCategory, category)
		}
	}

	return styleTemplates(maps.Clone(templates)), nil
}

func (t styleTemplates) lookup(category domain.Category) (string, error) {
	template, ok := t[category]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedCategory, category)
	}
	return template, nil
}
