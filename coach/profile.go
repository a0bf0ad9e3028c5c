package coach

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ClientProfile is the free-text intake record every persona works from.
type ClientProfile struct {
	Name              string `yaml:"name" json:"name"`
	Age               string `yaml:"age" json:"age"`
	Weight            string `yaml:"weight" json:"weight"`
	Height            string `yaml:"height" json:"height"`
	Gender            string `yaml:"gender" json:"gender"`
	ActivityLevel     string `yaml:"activity_level" json:"activity_level"`
	FitnessGoals      string `yaml:"fitness_goals" json:"fitness_goals"`
	Experience        string `yaml:"experience" json:"experience"`
	Equipment         string `yaml:"equipment" json:"equipment"`
	MedicalConditions string `yaml:"medical_conditions" json:"medical_conditions"`
	AdditionalNotes   string `yaml:"additional_notes" json:"additional_notes"`
}

const (
	defaultActivity   = "Moderately Active"
	defaultGoals      = "Build muscle, Lose weight/fat"
	defaultExperience = "Intermediate (6 months - 2 years)"
	defaultEquipment  = "Full gym access"
)

var (
	activityChoices = map[string]string{
		"1": "Sedentary",
		"2": "Lightly Active",
		"3": "Moderately Active",
		"4": "Very Active",
		"5": "Extremely Active",
	}
	goalChoices = map[string]string{
		"1": "Build muscle",
		"2": "Lose weight/fat",
		"3": "Improve endurance",
		"4": "Increase strength",
		"5": "Improve flexibility",
		"6": "General fitness",
	}
	experienceChoices = map[string]string{
		"1": "Beginner (0-6 months)",
		"2": "Intermediate (6 months - 2 years)",
		"3": "Advanced (2+ years)",
	}
	equipmentChoices = map[string]string{
		"1": "Full gym access",
		"2": "Home gym (weights, bench, etc.)",
		"3": "Limited equipment (dumbbells, resistance bands)",
		"4": "Bodyweight only",
	}
)

// DemoProfile returns the built-in demo client.
func DemoProfile() ClientProfile {
	return ClientProfile{
		Name:              "Demo Client",
		Age:               "32",
		Weight:            "75",
		Height:            "175",
		Gender:            "Male",
		ActivityLevel:     defaultActivity,
		FitnessGoals:      defaultGoals,
		Experience:        defaultExperience,
		Equipment:         defaultEquipment,
		MedicalConditions: "None",
		AdditionalNotes:   "None",
	}
}

// WithDefaults returns a copy with every blank field set to its placeholder.
// Supplied values are kept as they are.
func (p ClientProfile) WithDefaults() ClientProfile {
	or := func(v *string, def string) {
		if strings.TrimSpace(*v) == "" {
			*v = def
		}
	}

	or(&p.Name, "Client")
	or(&p.Age, "30")
	or(&p.Weight, "70")
	or(&p.Height, "170")
	or(&p.Gender, "Male")
	or(&p.ActivityLevel, defaultActivity)
	or(&p.FitnessGoals, defaultGoals)
	or(&p.Experience, defaultExperience)
	or(&p.Equipment, defaultEquipment)
	or(&p.MedicalConditions, "None")
	or(&p.AdditionalNotes, "None")

	return p
}

// Normalize cleans up intake answers: it trims surrounding whitespace, maps
// menu numbers to their labels and applies defaults. Values that are not
// menu numbers pass through unchanged.
func (p ClientProfile) Normalize() ClientProfile {
	for _, v := range []*string{
		&p.Name, &p.Age, &p.Weight, &p.Height, &p.Gender, &p.ActivityLevel,
		&p.FitnessGoals, &p.Experience, &p.Equipment, &p.MedicalConditions, &p.AdditionalNotes,
	} {
		*v = strings.TrimSpace(*v)
	}

	p = p.WithDefaults()
	p.ActivityLevel = choice(p.ActivityLevel, activityChoices, defaultActivity)
	p.FitnessGoals = goals(p.FitnessGoals)
	p.Experience = choice(p.Experience, experienceChoices, "Intermediate")
	p.Equipment = choice(p.Equipment, equipmentChoices, defaultEquipment)
	return p
}

func choice(v string, choices map[string]string, fallback string) string {
	if !isNumber(v) {
		return v
	}
	if label, ok := choices[v]; ok {
		return label
	}
	return fallback
}

func goals(v string) string {
	fields := strings.Split(v, ",")
	for _, f := range fields {
		if !isNumber(strings.TrimSpace(f)) {
			return v
		}
	}

	var selected []string
	for _, f := range fields {
		if label, ok := goalChoices[strings.TrimSpace(f)]; ok {
			selected = append(selected, label)
		}
	}
	if len(selected) == 0 {
		return defaultGoals
	}
	return strings.Join(selected, ", ")
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// UserID derives the user id shared by all personas: the lower-cased name
// with spaces replaced by underscores.
func (p ClientProfile) UserID() string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(p.WithDefaults().Name)), " ", "_")
}

// NewSessionID returns the session id used for one program run.
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("session_%d", now.Unix())
}

// NewUniqueSessionID is NewSessionID with a random suffix, for callers that
// may start several programs for one client within the same second.
func NewUniqueSessionID(now time.Time) string {
	return fmt.Sprintf("%s_%s", NewSessionID(now), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// LoadProfile reads a YAML profile file and normalizes it.
func LoadProfile(path string) (ClientProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientProfile{}, fmt.Errorf("failed to read profile: %w", err)
	}

	var p ClientProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return ClientProfile{}, fmt.Errorf("failed to parse profile YAML: %w", err)
	}

	return p.Normalize(), nil
}
