package resolver

import (
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/google/uuid"
)

const comboPrefix = "combo-"

// ExpandCombo splits a "combo-{uuid}-{uuid}" product id into its two component
// product ids. Any other id is returned unchanged with ok false.
func ExpandCombo(productID string) (components []string, ok bool) {
	rest, found := strings.CutPrefix(productID, comboPrefix)
	if !found || len(rest) != 36*2+1 || rest[36] != '-' {
		return []string{productID}, false
	}
	first, err := uuid.Parse(rest[:36])
	if err != nil {
		return []string{productID}, false
	}
	second, err := uuid.Parse(rest[37:])
	if err != nil {
		return []string{productID}, false
	}
	return []string{first.String(), second.String()}, true
}

// ChoicesFor keeps the selections that belong to groups of rec, so each
// component of a combo sees only its own choices.
func ChoicesFor(rec *model.ProductRecipe, choices []model.SelectedChoice) []model.SelectedChoice {
	var out []model.SelectedChoice
	for _, c := range choices {
		for _, g := range rec.ChoiceGroups {
			if strings.EqualFold(strings.TrimSpace(g.Name), strings.TrimSpace(c.GroupName)) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
