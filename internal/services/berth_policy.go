package services

import "github.com/smarttransit/berth-allocator/internal/models"

// BerthRule is one row of the confirmed-berth preference table
type BerthRule struct {
	Name      string
	Applies   func(p models.PassengerRequest, groupHasChild bool) bool
	Preferred []models.BerthClass
}

// BerthPolicy is an ordered rule table. Rules are tried top to bottom; a rule
// whose preferred classes are all taken falls through to the next one that
// applies.
type BerthPolicy []BerthRule

// DefaultBerthPolicy returns the standard sleeper preference table
func DefaultBerthPolicy() BerthPolicy {
	return BerthPolicy{
		{
			Name: "senior-or-female-with-child",
			Applies: func(p models.PassengerRequest, groupHasChild bool) bool {
				return p.Age >= models.SeniorAge || (p.Gender == models.GenderFemale && groupHasChild)
			},
			Preferred: []models.BerthClass{models.BerthClassLower},
		},
		{
			Name: "male",
			Applies: func(p models.PassengerRequest, _ bool) bool {
				return p.Gender == models.GenderMale
			},
			Preferred: []models.BerthClass{models.BerthClassUpper, models.BerthClassMiddle, models.BerthClassSideLower},
		},
		{
			Name:      "default",
			Applies:   func(models.PassengerRequest, bool) bool { return true },
			Preferred: []models.BerthClass{models.BerthClassLower, models.BerthClassMiddle, models.BerthClassUpper, models.BerthClassSideLower},
		},
	}
}

// PreferenceOrder flattens the applicable rules into the order in which
// confirmed classes are tried for the passenger, without repeats
func (p BerthPolicy) PreferenceOrder(passenger models.PassengerRequest, groupHasChild bool) []models.BerthClass {
	seen := make(map[models.BerthClass]bool, len(models.ConfirmedBerthClasses))
	order := make([]models.BerthClass, 0, len(models.ConfirmedBerthClasses))

	for _, rule := range p {
		if !rule.Applies(passenger, groupHasChild) {
			continue
		}
		for _, class := range rule.Preferred {
			if seen[class] {
				continue
			}
			seen[class] = true
			order = append(order, class)
		}
	}
	return order
}
