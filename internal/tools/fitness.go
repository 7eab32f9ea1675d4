package tools

import (
	"context"
	"fmt"
	"math"

	"github.com/coachly/coachly/internal/profile"
)

// userIDSchema is the shared argument schema for tools keyed by user.
func userIDSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"userId": map[string]any{
				"type":        "string",
				"description": "The user's identifier",
			},
		},
		"required": []string{"userId"},
	}
}

// userArgs is the input for tools keyed by user.
type userArgs struct {
	UserID string `json:"userId"`
}

// foodArgs is the input for the nutrition lookup.
type foodArgs struct {
	FoodName string `json:"foodName"`
}

// HealthMetrics is the output of calculate_health_metrics.
type HealthMetrics struct {
	BMI      float64 `json:"bmi"`
	Category string  `json:"category"`
	BMR      float64 `json:"bmr"`
	TDEE     float64 `json:"tdee"`
}

// NewWorkoutPlanTool returns the user's current workout plan.
func NewWorkoutPlanTool(store *profile.Store) Tool {
	return New("get_workout_plan",
		"Fetch the user's current weekly workout plan, with days, focus and exercises.",
		userIDSchema(),
		func(_ context.Context, in userArgs) (profile.WorkoutPlan, error) {
			return store.WorkoutPlan(in.UserID)
		})
}

// NewDietPlanTool returns the user's current diet plan.
func NewDietPlanTool(store *profile.Store) Tool {
	return New("get_diet_plan",
		"Fetch the user's current daily diet plan, with meals and calories.",
		userIDSchema(),
		func(_ context.Context, in userArgs) (profile.DietPlan, error) {
			return store.DietPlan(in.UserID)
		})
}

// NewNutritionLookupTool looks up per-100g macros for a food.
func NewNutritionLookupTool() Tool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"foodName": map[string]any{
				"type":        "string",
				"description": "Name of the food to look up",
			},
		},
		"required": []string{"foodName"},
	}
	return New("nutrition_lookup",
		"Look up calories and macronutrients per 100g for a common food.",
		schema,
		func(_ context.Context, in foodArgs) (profile.FoodInfo, error) {
			return profile.LookupFood(in.FoodName)
		})
}

// NewHealthMetricsTool computes BMI, BMR (Mifflin-St Jeor) and TDEE from
// the user's profile.
func NewHealthMetricsTool(store *profile.Store) Tool {
	return New("calculate_health_metrics",
		"Compute the user's BMI, basal metabolic rate and daily energy expenditure from their profile.",
		userIDSchema(),
		func(_ context.Context, in userArgs) (HealthMetrics, error) {
			p, err := store.Profile(in.UserID)
			if err != nil {
				return HealthMetrics{}, err
			}
			return computeMetrics(p)
		})
}

func computeMetrics(p profile.Profile) (HealthMetrics, error) {
	if p.HeightCm <= 0 || p.WeightKg <= 0 {
		return HealthMetrics{}, fmt.Errorf("profile for user %q has no body measurements", p.UserID)
	}

	heightM := p.HeightCm / 100
	bmi := p.WeightKg / (heightM * heightM)

	// Mifflin-St Jeor
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Sex == "male" {
		bmr += 5
	} else {
		bmr -= 161
	}

	return HealthMetrics{
		BMI:      round1(bmi),
		Category: bmiCategory(bmi),
		BMR:      math.Round(bmr),
		TDEE:     math.Round(bmr * activityFactor(p.Activity)),
	}, nil
}

func bmiCategory(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "underweight"
	case bmi < 25:
		return "normal"
	case bmi < 30:
		return "overweight"
	default:
		return "obese"
	}
}

func activityFactor(activity string) float64 {
	switch activity {
	case "sedentary":
		return 1.2
	case "light":
		return 1.375
	case "active":
		return 1.725
	default: // moderate
		return 1.55
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
