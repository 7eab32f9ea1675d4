// Package profile holds the in-memory user data the fitness tools read:
// profiles, workout plans, diet plans and a small nutrition table.
// Durable persistence is an external collaborator; this store exists so the
// tools have real documents to serve during a conversation.
package profile

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound indicates no document exists for the given key.
var ErrNotFound = errors.New("not found")

// Profile is a user's physical profile.
type Profile struct {
	UserID   string  `json:"userId"`
	Name     string  `json:"name"`
	Age      int     `json:"age"`
	Sex      string  `json:"sex"` // "male" or "female", used by the BMR formula
	HeightCm float64 `json:"heightCm"`
	WeightKg float64 `json:"weightKg"`
	Goal     string  `json:"goal"`
	Activity string  `json:"activity"` // sedentary | light | moderate | active
}

// Exercise is one movement in a workout day.
type Exercise struct {
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps int    `json:"reps"`
}

// WorkoutDay is one scheduled training day.
type WorkoutDay struct {
	Day       string     `json:"day"`
	Focus     string     `json:"focus"`
	Exercises []Exercise `json:"exercises"`
}

// WorkoutPlan is a user's weekly training plan.
type WorkoutPlan struct {
	UserID string       `json:"userId"`
	Days   []WorkoutDay `json:"days"`
}

// Meal is one entry of a diet plan.
type Meal struct {
	Name     string   `json:"name"`
	Foods    []string `json:"foods"`
	Calories int      `json:"calories"`
}

// DietPlan is a user's daily meal plan.
type DietPlan struct {
	UserID string `json:"userId"`
	Meals  []Meal `json:"meals"`
}

// FoodInfo is the per-100g macro breakdown of a food.
type FoodInfo struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Store is a mutex-guarded in-memory document store.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]Profile
	workouts map[string]WorkoutPlan
	diets    map[string]DietPlan
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		profiles: make(map[string]Profile),
		workouts: make(map[string]WorkoutPlan),
		diets:    make(map[string]DietPlan),
	}
}

// PutProfile inserts or replaces a profile.
func (s *Store) PutProfile(p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p
}

// Profile returns the profile for userID.
func (s *Store) Profile(userID string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return Profile{}, fmt.Errorf("profile for user %q: %w", userID, ErrNotFound)
	}
	return p, nil
}

// PutWorkoutPlan inserts or replaces a workout plan.
func (s *Store) PutWorkoutPlan(p WorkoutPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workouts[p.UserID] = p
}

// WorkoutPlan returns the workout plan for userID.
func (s *Store) WorkoutPlan(userID string) (WorkoutPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.workouts[userID]
	if !ok {
		return WorkoutPlan{}, fmt.Errorf("workout plan for user %q: %w", userID, ErrNotFound)
	}
	return p, nil
}

// PutDietPlan inserts or replaces a diet plan.
func (s *Store) PutDietPlan(p DietPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diets[p.UserID] = p
}

// DietPlan returns the diet plan for userID.
func (s *Store) DietPlan(userID string) (DietPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.diets[userID]
	if !ok {
		return DietPlan{}, fmt.Errorf("diet plan for user %q: %w", userID, ErrNotFound)
	}
	return p, nil
}

// foods is a per-100g nutrition table for common foods. Lookup is
// case-insensitive on the lowercase key.
var foods = map[string]FoodInfo{
	"rice":           {Name: "rice", Calories: 130, Protein: 2.7, Carbs: 28.2, Fat: 0.3},
	"chicken breast": {Name: "chicken breast", Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6},
	"egg":            {Name: "egg", Calories: 155, Protein: 13, Carbs: 1.1, Fat: 11},
	"oats":           {Name: "oats", Calories: 389, Protein: 16.9, Carbs: 66.3, Fat: 6.9},
	"banana":         {Name: "banana", Calories: 89, Protein: 1.1, Carbs: 22.8, Fat: 0.3},
	"salmon":         {Name: "salmon", Calories: 208, Protein: 20, Carbs: 0, Fat: 13},
	"broccoli":       {Name: "broccoli", Calories: 34, Protein: 2.8, Carbs: 6.6, Fat: 0.4},
	"sweet potato":   {Name: "sweet potato", Calories: 86, Protein: 1.6, Carbs: 20.1, Fat: 0.1},
	"greek yogurt":   {Name: "greek yogurt", Calories: 59, Protein: 10, Carbs: 3.6, Fat: 0.4},
	"almonds":        {Name: "almonds", Calories: 579, Protein: 21.2, Carbs: 21.6, Fat: 49.9},
}

// LookupFood returns nutrition info for a food name.
func LookupFood(name string) (FoodInfo, error) {
	f, ok := foods[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return FoodInfo{}, fmt.Errorf("food %q: %w", name, ErrNotFound)
	}
	return f, nil
}

// Seed populates the store with a small demo dataset.
func (s *Store) Seed() {
	s.PutProfile(Profile{
		UserID: "u1", Name: "Dana", Age: 29, Sex: "female",
		HeightCm: 168, WeightKg: 63, Goal: "build strength", Activity: "moderate",
	})
	s.PutWorkoutPlan(WorkoutPlan{
		UserID: "u1",
		Days: []WorkoutDay{
			{Day: "monday", Focus: "lower body", Exercises: []Exercise{
				{Name: "back squat", Sets: 4, Reps: 6},
				{Name: "romanian deadlift", Sets: 3, Reps: 8},
			}},
			{Day: "thursday", Focus: "upper body", Exercises: []Exercise{
				{Name: "bench press", Sets: 4, Reps: 6},
				{Name: "barbell row", Sets: 3, Reps: 8},
			}},
		},
	})
	s.PutDietPlan(DietPlan{
		UserID: "u1",
		Meals: []Meal{
			{Name: "breakfast", Foods: []string{"oats", "greek yogurt", "banana"}, Calories: 450},
			{Name: "lunch", Foods: []string{"chicken breast", "rice", "broccoli"}, Calories: 620},
			{Name: "dinner", Foods: []string{"salmon", "sweet potato"}, Calories: 580},
		},
	})
}
