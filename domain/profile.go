package domain

import "github.com/google/uuid"

// ProfileRepository defines the interface for managing per-conversation patient profiles.
// A conversation has at most one profile; saving again replaces the previous one.
type ProfileRepository interface {
	// UpsertProfile creates or replaces the profile for a conversation.
	UpsertProfile(profile *PatientProfile) error

	// GetProfile retrieves the profile of a conversation.
	// It returns an error if the conversation has no profile.
	GetProfile(conversationID uuid.UUID) (*PatientProfile, error)
}

// PatientProfile captures the self-reported information that shapes the
// education prompt. It intentionally contains no clinical identifiers; all
// fields are free-text or coarse categories entered by the user.
type PatientProfile struct {
	ConversationID   uuid.UUID // Conversation this profile belongs to.
	DiabetesType     string    // e.g. "Type 1", "Type 2", "Gestational".
	TherapyType      string    // e.g. "Basal-bolus injections", "Oral medication".
	InjectionsPerDay int       // Self-reported daily injection count.
	FastingRange     string    // Typical fasting glucose band, e.g. "80-130 mg/dL".
	HypoLastWeek     bool      // Whether a low-glucose episode occurred in the last week.
	BurdenScore      int       // Injection burden, 0 (none) to 10 (severe).
	Topics           []string  // Focus areas the user wants to learn about.
	Medications      string    // Free-text list of current diabetes medications.
	Consent          bool      // Confirmation that output is education only, not medical advice.
}
