package a2a

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fittelligence/core"
	"github.com/hupe1980/fittelligence/logging"
)

// Target persona names.
const (
	PTAgent          = "pt_agent"
	NutritionAgent   = "nutrition_agent"
	ReceptionAgent   = "reception_agent"
	BodyScannerAgent = "body_scanner_agent"
)

// Defaults applied to empty optional arguments.
const (
	DefaultFitnessLevel   = "intermediate"
	DefaultAssessmentType = "comprehensive"
)

const productionNote = "To use this in production, implement agent invocation using the runner package or an A2A connection.]"

// Registry resolves persona names. Lookup returns core.ErrAgentNotFound for
// unknown names.
type Registry interface {
	Lookup(name string) (core.Agent, error)
}

// Options configures a Client.
type Options struct {
	Logger logging.Logger
}

// Client issues agent-to-agent requests against a Registry.
type Client struct {
	registry Registry
	logger   logging.Logger
}

// NewClient creates a client. A nil registry makes every target unavailable.
func NewClient(registry Registry, optFns ...func(o *Options)) *Client {
	opts := Options{Logger: logging.NoOpLogger{}}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Client{registry: registry, logger: opts.Logger}
}

// TrainingPlanFromPT asks the personal trainer for a training plan.
func (c *Client) TrainingPlanFromPT(userGoals, fitnessLevel, preferences string) string {
	if fitnessLevel == "" {
		fitnessLevel = DefaultFitnessLevel
	}

	return c.delegate(PTAgent, "PT", func() string {
		return fmt.Sprintf(`Create a personalized training plan with the following details:
- User Goals: %s
- Fitness Level: %s
- Preferences: %s

Please provide a comprehensive training plan including:
1. Weekly workout schedule
2. Specific exercises with sets, reps, and rest periods
3. Progression plan
4. Equipment needed
5. Safety considerations

Format the response clearly and be specific.`, userGoals, fitnessLevel, preferences)
	}, func() string {
		return fmt.Sprintf(`PT Agent Training Plan Request:
Goals: %s
Fitness Level: %s
Preferences: %s

[The PT agent would create a comprehensive training plan based on these inputs.
%s`, userGoals, fitnessLevel, preferences, productionNote)
	})
}

// NutritionPlanFromNutrition asks the nutritionist for a nutrition plan.
func (c *Client) NutritionPlanFromNutrition(userGoals, dietaryRestrictions, nutritionalNeeds string) string {
	return c.delegate(NutritionAgent, "Nutrition", func() string {
		return fmt.Sprintf(`Create a personalized nutrition plan with the following details:
- User Goals: %s
- Dietary Restrictions: %s
- Nutritional Needs: %s

Please provide a comprehensive nutrition plan including:
1. Daily meal plan with specific food suggestions
2. Macronutrient breakdown (protein, carbs, fats)
3. Calorie targets
4. Meal timing recommendations
5. Recipe suggestions
6. Supplement recommendations if applicable

Format the response clearly and be specific.`, userGoals, dietaryRestrictions, nutritionalNeeds)
	}, func() string {
		return fmt.Sprintf(`Nutrition Agent Plan Request:
Goals: %s
Dietary Restrictions: %s
Nutritional Needs: %s

[The Nutrition agent would create a comprehensive nutrition plan based on these inputs.
%s`, userGoals, dietaryRestrictions, nutritionalNeeds, productionNote)
	})
}

// ClientInformationFromReception asks the receptionist for a client intake.
func (c *Client) ClientInformationFromReception(clientName, additionalQuestions string) string {
	return c.delegate(ReceptionAgent, "Reception", func() string {
		return fmt.Sprintf(`Collect comprehensive client information.

Client Name: %s
Additional Information Needed: %s

Please gather all necessary information including:
1. Personal information and demographics
2. Health and medical history
3. Fitness background and experience
4. Nutrition preferences and restrictions
5. Lifestyle factors
6. Goals and expectations

Provide a detailed client profile summary.`, orDefault(clientName, "[New Client]"), orDefault(additionalQuestions, "Standard intake"))
	}, func() string {
		return fmt.Sprintf(`Reception Agent - Client Information Collection:
Client: %s
Request: %s

[The reception agent would conduct a thorough client intake interview and provide a comprehensive client profile.
%s`, orDefault(clientName, "New Client"), orDefault(additionalQuestions, "Complete client intake"), productionNote)
	})
}

// BodyAnalysisFromScanner asks the body scanner for an assessment.
func (c *Client) BodyAnalysisFromScanner(bodyImages, mobilityTestRequest, assessmentType string) string {
	if assessmentType == "" {
		assessmentType = DefaultAssessmentType
	}

	images := "Not provided"
	if bodyImages != "" {
		images = "Provided"
	}

	return c.delegate(BodyScannerAgent, "Body Scanner", func() string {
		return fmt.Sprintf(`Conduct %s body analysis and assessment.

Body Images: %s
Mobility Test Request: %s
Assessment Type: %s

Please provide:
1. Postural analysis from images (if provided)
2. Mobility test results and recommendations
3. Movement quality assessment
4. Identified imbalances or restrictions
5. Corrective exercise recommendations
6. Performance considerations for the head coach`,
			assessmentType,
			orDefault(bodyImages, "No images provided yet - request images if needed"),
			orDefault(mobilityTestRequest, "Standard mobility assessment"),
			assessmentType,
		)
	}, func() string {
		return fmt.Sprintf(`Body Scanner Agent - Analysis Request:
Assessment Type: %s
Images: %s
Mobility Tests: %s

[The body scanner agent would analyze body images, conduct mobility tests, and provide detailed kinesiology-based recommendations.
%s`, assessmentType, images, orDefault(mobilityTestRequest, "Standard assessment"), productionNote)
	})
}

// delegate resolves target and returns reply(). Lookup failures and panics
// are converted into the returned text.
func (c *Client) delegate(target, label string, prompt, reply func() string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("a2a.delegate.panic", "target", target, "recover", r)
			out = fmt.Sprintf("Error calling %s agent: %v", label, r)
		}
	}()

	unavailable := fmt.Sprintf("%s Agent is not available. Please ensure %s is properly configured.", label, target)

	if c.registry == nil {
		c.logger.Warn("a2a.delegate.unavailable", "target", target)
		return unavailable
	}

	a, err := c.registry.Lookup(target)
	if errors.Is(err, core.ErrAgentNotFound) || (err == nil && a == nil) {
		c.logger.Warn("a2a.delegate.unavailable", "target", target)
		return unavailable
	}

	if err != nil {
		c.logger.Error("a2a.delegate.error", "target", target, "error", err.Error())
		return fmt.Sprintf("Error calling %s agent: %s", label, err)
	}

	c.logger.Debug("a2a.delegate", "target", a.Name(), "prompt", prompt())

	return reply()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
