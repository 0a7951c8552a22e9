package recipe

import "github.com/fekuna/omnipos-inventory-service/internal/model"

// SplitRows separates always-deducted rows from choice options and groups the
// latter by group name, preserving first-seen order.
func SplitRows(rows []model.RecipeIngredientRequirement) ([]model.RecipeIngredientRequirement, []model.ChoiceGroup) {
	var fixed []model.RecipeIngredientRequirement
	var groups []model.ChoiceGroup
	index := make(map[string]int)

	for _, row := range rows {
		if !row.IsChoice() {
			fixed = append(fixed, row)
			continue
		}
		i, ok := index[row.GroupName]
		if !ok {
			i = len(groups)
			index[row.GroupName] = i
			groups = append(groups, model.ChoiceGroup{
				Name:          row.GroupName,
				TemplateID:    row.RecipeID,
				SelectionType: row.SelectionType,
			})
		}
		groups[i].Options = append(groups[i].Options, row)
	}
	return fixed, groups
}

// BuildChoiceGroups keeps only the choice groups of rows.
func BuildChoiceGroups(rows []model.RecipeIngredientRequirement) []model.ChoiceGroup {
	_, groups := SplitRows(rows)
	return groups
}
