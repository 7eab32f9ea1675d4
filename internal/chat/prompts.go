package chat

// Plan is a coarse conversational context selected per turn. Each plan maps
// to a system prompt persona.
type Plan string

const (
	PlanNutrition Plan = "nutrition"
	PlanWorkout   Plan = "workout"
	PlanMetrics   Plan = "metrics"
	PlanGeneral   Plan = "general"
)

// System prompts per plan. Each prompt instructs the model on the tool-call
// protocol: answer directly, or reply with a one-line JSON intent naming a
// tool.
const (
	toolProtocol = `When you need user-specific data, respond with exactly one JSON object on a single line:
{"needs_tool": true, "tool_name": "<name>", "tool_args": {...}}
Available tools: get_workout_plan(userId), get_diet_plan(userId), nutrition_lookup(foodName), calculate_health_metrics(userId).
Otherwise respond with {"needs_tool": false, "response": "<your answer>"} or plain text.`

	nutritionPrompt = `You are a certified nutrition coach. Give practical, evidence-based dietary guidance tailored to the user's goals. Keep portions and calories concrete.
` + toolProtocol

	workoutPrompt = `You are an experienced personal trainer. Design and explain training sessions with correct form cues and sensible progression.
` + toolProtocol

	metricsPrompt = `You are a health metrics analyst. Interpret body measurements, BMI, BMR and TDEE for the user in plain language, and be clear about what the numbers do and do not mean.
` + toolProtocol

	generalPrompt = `You are a friendly fitness coach. Keep the user motivated, answer general questions, and steer them toward their training and nutrition goals.
` + toolProtocol
)

// SystemPrompt returns the persona prompt for a plan. Total over all plans;
// unknown values get the general persona.
func SystemPrompt(p Plan) string {
	switch p {
	case PlanNutrition:
		return nutritionPrompt
	case PlanWorkout:
		return workoutPrompt
	case PlanMetrics:
		return metricsPrompt
	default:
		return generalPrompt
	}
}
