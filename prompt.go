package glyco

import (
	"fmt"
	"strings"

	"github.com/glyco-app/glyco/domain"
)

// BuildSystemPrompt renders the system prompt for a conversation from the
// patient profile. The prompt pins the assistant to patient education:
// no dosing suggestions, ADA/FDA-aligned content, red flags in every
// answer, and buccal insulin films marked as research stage.
func BuildSystemPrompt(profile *domain.PatientProfile) string {
	var b strings.Builder

	b.WriteString("System role: You are a kind, clear diabetes education assistant.\n")
	b.WriteString("Audience: Adults with diabetes (patients, not clinicians).\n")
	b.WriteString("Tone: Warm, encouraging, simple language. Avoid medical jargon.\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- NO dosing suggestions or insulin adjustments.\n")
	b.WriteString("- Focus on general education and ADA/FDA-aligned safety.\n")
	b.WriteString("- Always include red flags for when to contact a doctor.\n")
	b.WriteString("- Mark that buccal insulin films are experimental/research stage.\n")
	b.WriteString("- Keep output short and scannable (bullets, headings).\n\n")

	b.WriteString("User profile:\n")
	b.WriteString(formatProfile(profile))
	b.WriteString("\n")

	b.WriteString("Answer questions as a patient-friendly education plan using numbered headings and bullet points.\n")

	return b.String()
}

// BuildSummaryPrompt renders the full education summary request used when a
// conversation starts or the user asks for a plan. It mirrors the ten
// section structure of the original education handout.
func BuildSummaryPrompt(profile *domain.PatientProfile) string {
	var b strings.Builder

	b.WriteString(BuildSystemPrompt(profile))
	b.WriteString("\nWrite a patient-friendly education plan with the following sections:\n\n")

	sections := []string{
		"1) **Disclaimer**\n   - Short paragraph reminding this is education only.",
		"2) **Your Current Regimen (Education)**\n   - Restate their diabetes type, therapy, injections per day, and any medications in simple terms.",
		"3) **ADA Glycemic Targets**\n   - General fasting, post-meal, A1C targets with note these are individualized.",
		"4) **Lifestyle & Self-Care**\n   - **Diet, Exercise, Monitoring, Stress/Sleep** (short bullets).",
		"5) **Injection Comfort & Adherence**\n   - Simple comfort tips.",
		"6) **Red Flags & Safety**\n   - When to contact a doctor.",
		"7) **Medication Education (Based on ADA & FDA)**\n   - For each medication they listed, generate a short patient-friendly handout:\n     - What it is (drug class, simple explanation)\n     - When/how it is generally used (oral/injection/IV, food timing if relevant)\n     - Common side effects\n     - Safety alerts / red flags (from ADA/FDA patient guidance)\n   - If multiple meds, list them separately.",
		"8) **New Delivery Option: Buccal Insulin Films (Research Stage)**\n   - Explain briefly in plain language.",
		"9) **Question: Would You Consider This Option?**",
		"10) **References**\n   - ADA Standards of Care, ADA Hypoglycemia guidance, CDC Carb Counting basics.",
	}
	b.WriteString(strings.Join(sections, "\n\n"))
	b.WriteString("\n\nOutput must use numbered headings and bullet points for clarity.\n")

	return b.String()
}

// formatProfile renders the profile fields as simple key/value lines.
// Only fields the user actually filled in appear in the prompt.
func formatProfile(profile *domain.PatientProfile) string {
	var b strings.Builder

	write := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", key, value)
		}
	}

	write("Diabetes type", profile.DiabetesType)
	write("Current therapy", profile.TherapyType)
	fmt.Fprintf(&b, "- Injections per day: %d\n", profile.InjectionsPerDay)
	write("Typical fasting glucose", profile.FastingRange)
	if profile.HypoLastWeek {
		write("Low glucose last week", "Yes")
	} else {
		write("Low glucose last week", "No")
	}
	fmt.Fprintf(&b, "- Injection burden (0-10): %d\n", profile.BurdenScore)
	write("Focus areas", strings.Join(profile.Topics, ", "))
	write("Medications", profile.Medications)

	return b.String()
}
