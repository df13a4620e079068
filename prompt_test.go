package glyco

import (
	"strings"
	"testing"

	"github.com/glyco-app/glyco/domain"
)

func testProfile() *domain.PatientProfile {
	return &domain.PatientProfile{
		DiabetesType:     "Type 1",
		TherapyType:      "Basal-bolus injections",
		InjectionsPerDay: 4,
		FastingRange:     "80-130 mg/dL",
		HypoLastWeek:     true,
		BurdenScore:      5,
		Topics:           []string{"Low-glucose safety", "New delivery options (research)"},
		Medications:      "Metformin oral, Lantus injection",
		Consent:          true,
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	t.Run("should include the safety rules", func(t *testing.T) {
		prompt := BuildSystemPrompt(testProfile())

		for _, want := range []string{
			"NO dosing suggestions or insulin adjustments",
			"ADA/FDA-aligned safety",
			"red flags",
			"buccal insulin films are experimental/research stage",
		} {
			if !strings.Contains(prompt, want) {
				t.Fatalf("\nwanted:\nprompt containing %q\ngot:\n%q", want, prompt)
			}
		}
	})

	t.Run("should include the profile fields", func(t *testing.T) {
		prompt := BuildSystemPrompt(testProfile())

		for _, want := range []string{
			"Diabetes type: Type 1",
			"Current therapy: Basal-bolus injections",
			"Injections per day: 4",
			"Typical fasting glucose: 80-130 mg/dL",
			"Low glucose last week: Yes",
			"Focus areas: Low-glucose safety, New delivery options (research)",
			"Medications: Metformin oral, Lantus injection",
		} {
			if !strings.Contains(prompt, want) {
				t.Fatalf("\nwanted:\nprompt containing %q\ngot:\n%q", want, prompt)
			}
		}
	})

	t.Run("should omit empty free-text fields", func(t *testing.T) {
		profile := testProfile()
		profile.Medications = ""

		prompt := BuildSystemPrompt(profile)
		if strings.Contains(prompt, "Medications:") {
			t.Fatalf("\nwanted:\nno medications line\ngot:\n%q", prompt)
		}
	})
}

func TestBuildSummaryPrompt(t *testing.T) {
	t.Run("should contain all education plan sections", func(t *testing.T) {
		prompt := BuildSummaryPrompt(testProfile())

		for _, want := range []string{
			"1) **Disclaimer**",
			"2) **Your Current Regimen (Education)**",
			"3) **ADA Glycemic Targets**",
			"4) **Lifestyle & Self-Care**",
			"5) **Injection Comfort & Adherence**",
			"6) **Red Flags & Safety**",
			"7) **Medication Education (Based on ADA & FDA)**",
			"8) **New Delivery Option: Buccal Insulin Films (Research Stage)**",
			"9) **Question: Would You Consider This Option?**",
			"10) **References**",
		} {
			if !strings.Contains(prompt, want) {
				t.Fatalf("\nwanted:\nprompt containing %q\ngot:\n%q", want, prompt)
			}
		}
	})
}
