package models

import "gorm.io/gorm"

// Initialize default credit packs in your database migration
func CreateDefaultPlans(db *gorm.DB) error {
	defaultPlans := []Plan{
		{
			Name:        "free",
			Description: "Free starter pack with 25 lead credits",
			Credits:     25,
			Price:       0,
		},
		{
			Name:         "starter",
			Description:  "Starter pack with 500 lead credits",
			Credits:      500,
			Price:        2900, // $29
			DisplayPrice: "$29",
		},
		{
			Name:         "grow",
			Description:  "Growth pack with 2,500 lead credits",
			Credits:      2500,
			Price:        9900, // $99
			DisplayPrice: "$99",
			IsPopular:    true,
		},
		{
			Name:         "enterprise",
			Description:  "Enterprise pack with 10,000 lead credits",
			Credits:      10000,
			Price:        29900, // $299
			DisplayPrice: "$299",
		},
	}

	for _, plan := range defaultPlans {
		var existing Plan
		if err := db.Where("name = ?", plan.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&plan).Error; err != nil {
				return err
			}
		}
	}
	return nil
}
