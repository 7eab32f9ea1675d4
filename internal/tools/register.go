package tools

import "github.com/coachly/coachly/internal/profile"

// RegisterFitnessTools wires the full fitness toolset into a registry.
func RegisterFitnessTools(r *Registry, store *profile.Store) error {
	for _, t := range []Tool{
		NewWorkoutPlanTool(store),
		NewDietPlanTool(store),
		NewNutritionLookupTool(),
		NewHealthMetricsTool(store),
	} {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}
