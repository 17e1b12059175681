package catalog

import (
	"fmt"

	"github.com/shopspring/decimal"

	"walkin-queue-backend/config"
	"walkin-queue-backend/internal/model"
	"walkin-queue-backend/internal/parse"
)

// FromConfig converts configured salon seeds into models.
func FromConfig(seeds []config.SalonSeed) ([]model.Salon, error) {
	salons := make([]model.Salon, 0, len(seeds))
	for _, seed := range seeds {
		if seed.ID == "" {
			return nil, fmt.Errorf("salon seed %q has no id", seed.Name)
		}
		salon := model.Salon{ID: seed.ID, Name: seed.Name}
		for _, item := range seed.Menu {
			name := parse.ServiceName(item.Name)
			if name == "" || item.DurationMinutes <= 0 {
				return nil, fmt.Errorf("salon %s: menu item %q needs a name and a positive duration", seed.ID, item.Name)
			}
			price := decimal.Zero
			if item.Price != "" {
				p, err := decimal.NewFromString(item.Price)
				if err != nil {
					return nil, fmt.Errorf("salon %s: price of %q: %w", seed.ID, name, err)
				}
				price = p
			}
			salon.Menu = append(salon.Menu, model.Service{
				Name:            name,
				DurationMinutes: item.DurationMinutes,
				Price:           price,
			})
		}
		salons = append(salons, salon)
	}
	return salons, nil
}
