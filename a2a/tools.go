package a2a

import (
	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/tool"
)

// Tool names exposed to the model.
const (
	ToolTrainingPlan      = "get_training_plan_from_pt_agent"
	ToolNutritionPlan     = "get_nutrition_plan_from_nutrition_agent"
	ToolClientInformation = "get_client_information_from_reception"
	ToolBodyAnalysis      = "get_body_analysis_from_scanner"
)

type trainingPlanArgs struct {
	UserGoals    string `json:"user_goals" description:"The user's fitness goals (e.g. build muscle, lose weight, improve endurance)"`
	FitnessLevel string `json:"fitness_level" description:"Current fitness level (beginner, intermediate, advanced)" default:"intermediate"`
	Preferences  string `json:"preferences,omitempty" description:"Workout preferences (e.g. prefer strength training, love running)"`
}

type nutritionPlanArgs struct {
	UserGoals           string `json:"user_goals" description:"The user's nutrition or health goals (e.g. weight loss, muscle gain)"`
	DietaryRestrictions string `json:"dietary_restrictions,omitempty" description:"Dietary restrictions or allergies (e.g. vegetarian, gluten-free)"`
	NutritionalNeeds    string `json:"nutritional_needs,omitempty" description:"Specific requirements (e.g. high protein, 2000 calories)"`
}

type clientInformationArgs struct {
	ClientName          string `json:"client_name,omitempty" description:"Name of the client"`
	AdditionalQuestions string `json:"additional_questions,omitempty" description:"Information needed beyond the standard intake"`
}

type bodyAnalysisArgs struct {
	BodyImages          string `json:"body_images,omitempty" description:"Description of or reference to body images to analyze"`
	MobilityTestRequest string `json:"mobility_test_request,omitempty" description:"Specific mobility tests to conduct"`
	AssessmentType      string `json:"assessment_type" description:"Type of assessment (comprehensive, postural, mobility, performance)" default:"comprehensive"`
}

// Tools exposes the client's four functions as function tools.
func Tools(c *Client) []tool.Tool {
	return []tool.Tool{
		tool.NewFunctionToolFromStruct(ToolClientInformation,
			"Get comprehensive client information from the reception agent.",
			clientInformationArgs{},
			func(_ *core.ToolContext, args map[string]any) (any, error) {
				return c.ClientInformationFromReception(str(args, "client_name"), str(args, "additional_questions")), nil
			}),
		tool.NewFunctionToolFromStruct(ToolBodyAnalysis,
			"Get body analysis and mobility assessment from the body scanner agent.",
			bodyAnalysisArgs{},
			func(_ *core.ToolContext, args map[string]any) (any, error) {
				return c.BodyAnalysisFromScanner(str(args, "body_images"), str(args, "mobility_test_request"), str(args, "assessment_type")), nil
			}),
		tool.NewFunctionToolFromStruct(ToolTrainingPlan,
			"Get a personalized training plan from the PT agent.",
			trainingPlanArgs{},
			func(_ *core.ToolContext, args map[string]any) (any, error) {
				return c.TrainingPlanFromPT(str(args, "user_goals"), str(args, "fitness_level"), str(args, "preferences")), nil
			}),
		tool.NewFunctionToolFromStruct(ToolNutritionPlan,
			"Get a personalized nutrition plan from the nutrition agent.",
			nutritionPlanArgs{},
			func(_ *core.ToolContext, args map[string]any) (any, error) {
				return c.NutritionPlanFromNutrition(str(args, "user_goals"), str(args, "dietary_restrictions"), str(args, "nutritional_needs")), nil
			}),
	}
}

func str(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
