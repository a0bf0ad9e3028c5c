package coach

import "fmt"

// ReceptionMessage introduces the client to the reception persona.
func ReceptionMessage(p ClientProfile) string {
	p = p.WithDefaults()

	return fmt.Sprintf(`Hello! I'm interested in starting a fitness program. Here's my information:

Basic Information:
- Name: %s
- Age: %s
- Weight: %s kg
- Height: %s cm
- Gender: %s

Activity & Experience:
- Activity Level: %s
- Exercise Experience: %s
- Fitness Goals: %s

Equipment & Health:
- Available Equipment: %s
- Medical Conditions/Limitations: %s
- Additional Notes: %s

Please help me create a personalized fitness and nutrition program.`,
		p.Name, p.Age, p.Weight, p.Height, p.Gender,
		p.ActivityLevel, p.Experience, p.FitnessGoals,
		p.Equipment, p.MedicalConditions, p.AdditionalNotes)
}

// BodyScannerMessage requests a body analysis and movement assessment.
func BodyScannerMessage(p ClientProfile) string {
	p = p.WithDefaults()

	return fmt.Sprintf(`Based on the client information collected, provide a body analysis and movement assessment.

The client is:
- %s years old %s
- %s kg, %s cm
- %s activity level
- Goals: %s
- Experience: %s
- Equipment: %s
- Medical/Limitations: %s

Please provide:
1. Postural assessment recommendations
2. Mobility test suggestions
3. Movement pattern analysis
4. Areas of focus for their goals
5. Any movement restrictions or considerations based on their profile`,
		p.Age, p.Gender, p.Weight, p.Height, p.ActivityLevel,
		p.FitnessGoals, p.Experience, p.Equipment, p.MedicalConditions)
}

// TrainingPlanMessage requests a 4-week training program.
func TrainingPlanMessage(p ClientProfile) string {
	p = p.WithDefaults()

	return fmt.Sprintf(`Create a personalized training plan for this client:

Client Profile:
- %s years old %s, %s kg, %s cm
- %s activity level
- Goals: %s
- Experience: %s
- Equipment: %s
- Medical/Limitations: %s

Please create a comprehensive 4-week training program including:
1. Weekly workout schedule
2. Specific exercises with sets, reps, and rest periods
3. Progression plan
4. Form cues and safety considerations
5. Modifications based on equipment availability and experience level`,
		p.Age, p.Gender, p.Weight, p.Height, p.ActivityLevel,
		p.FitnessGoals, p.Experience, p.Equipment, p.MedicalConditions)
}

// NutritionPlanMessage requests a nutrition plan.
func NutritionPlanMessage(p ClientProfile) string {
	p = p.WithDefaults()

	return fmt.Sprintf(`Create a personalized nutrition plan for this client:

Client Profile:
- %s years old %s, %s kg, %s cm
- %s activity level
- Goals: %s
- Training: Based on %s activity level
- Medical/Dietary: %s
- Additional Notes: %s

Please create a comprehensive nutrition plan including:
1. Daily calorie and macronutrient targets
2. Meal plan with specific foods
3. Pre and post-workout nutrition
4. Meal timing recommendations
5. Supplement suggestions if appropriate
6. Consider any dietary restrictions or preferences mentioned`,
		p.Age, p.Gender, p.Weight, p.Height, p.ActivityLevel,
		p.FitnessGoals, p.ActivityLevel, p.MedicalConditions, p.AdditionalNotes)
}

// HeadCoachMessage asks the head coach to integrate the team's plans.
func HeadCoachMessage(p ClientProfile) string {
	p = p.WithDefaults()

	return fmt.Sprintf(`Based on all the information collected from the team, create a comprehensive integrated fitness and nutrition program:

Client Information:
- %s: %s years old %s, %s kg, %s cm
- Goals: %s
- Experience: %s
- Activity Level: %s
- Equipment: %s
- Medical/Limitations: %s

Please create a final integrated program that:
1. Combines the training and nutrition plans from previous agents
2. Ensures they work together harmoniously
3. Addresses the client's specific goals: %s
4. Includes weekly schedule
5. Provides progression guidelines
6. Includes safety considerations based on: %s
7. Takes into account equipment availability: %s`,
		p.Name, p.Age, p.Gender, p.Weight, p.Height,
		p.FitnessGoals, p.Experience, p.ActivityLevel, p.Equipment, p.MedicalConditions,
		p.FitnessGoals, p.MedicalConditions, p.Equipment)
}
