package db

import (
	"fmt"

	"github.com/glyco-app/glyco/domain"
	"github.com/google/uuid"
)

var _ domain.ProfileRepository = (*Repository)(nil)

// dbProfile represents a patient profile as stored in the database.
// Booleans are stored as INTEGER columns and converted by the driver.
type dbProfile struct {
	ConversationID   uuid.UUID  `db:"conversation_id"`
	DiabetesType     string     `db:"diabetes_type"`
	TherapyType      string     `db:"therapy_type"`
	InjectionsPerDay int        `db:"injections_per_day"`
	FastingRange     string     `db:"fasting_range"`
	HypoLastWeek     bool       `db:"hypo_last_week"`
	BurdenScore      int        `db:"burden_score"`
	Topics           StringList `db:"topics"`
	Medications      string     `db:"medications"`
	Consent          bool       `db:"consent"`
}

// toDomainProfile converts a dbProfile into a domain.PatientProfile.
func toDomainProfile(dbProf *dbProfile) *domain.PatientProfile {
	return &domain.PatientProfile{
		ConversationID:   dbProf.ConversationID,
		DiabetesType:     dbProf.DiabetesType,
		TherapyType:      dbProf.TherapyType,
		InjectionsPerDay: dbProf.InjectionsPerDay,
		FastingRange:     dbProf.FastingRange,
		HypoLastWeek:     dbProf.HypoLastWeek,
		BurdenScore:      dbProf.BurdenScore,
		Topics:           []string(dbProf.Topics),
		Medications:      dbProf.Medications,
		Consent:          dbProf.Consent,
	}
}

// fromDomainProfile converts a domain.PatientProfile into a dbProfile.
func fromDomainProfile(profile *domain.PatientProfile) *dbProfile {
	return &dbProfile{
		ConversationID:   profile.ConversationID,
		DiabetesType:     profile.DiabetesType,
		TherapyType:      profile.TherapyType,
		InjectionsPerDay: profile.InjectionsPerDay,
		FastingRange:     profile.FastingRange,
		HypoLastWeek:     profile.HypoLastWeek,
		BurdenScore:      profile.BurdenScore,
		Topics:           StringList(profile.Topics),
		Medications:      profile.Medications,
		Consent:          profile.Consent,
	}
}

// UpsertProfile creates or replaces the profile for a conversation.
func (repo *Repository) UpsertProfile(profile *domain.PatientProfile) error {
	dbProf := fromDomainProfile(profile)
	query := `INSERT INTO profiles (conversation_id, diabetes_type, therapy_type, injections_per_day,
				fasting_range, hypo_last_week, burden_score, topics, medications, consent)
			  VALUES (:conversation_id, :diabetes_type, :therapy_type, :injections_per_day,
				:fasting_range, :hypo_last_week, :burden_score, :topics, :medications, :consent)
			  ON CONFLICT(conversation_id)
			  DO UPDATE SET
				diabetes_type = excluded.diabetes_type,
				therapy_type = excluded.therapy_type,
				injections_per_day = excluded.injections_per_day,
				fasting_range = excluded.fasting_range,
				hypo_last_week = excluded.hypo_last_week,
				burden_score = excluded.burden_score,
				topics = excluded.topics,
				medications = excluded.medications,
				consent = excluded.consent`

	_, err := repo.dbConn.NamedExec(query, dbProf)
	if err != nil {
		return fmt.Errorf("upserting profile for conversation %s : %w", profile.ConversationID, err)
	}
	return nil
}

// GetProfile retrieves the profile of a conversation.
func (repo *Repository) GetProfile(conversationID uuid.UUID) (*domain.PatientProfile, error) {
	var dbProf dbProfile
	query := `SELECT * FROM profiles WHERE conversation_id = ?`

	err := repo.dbConn.Get(&dbProf, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("getting profile for conversation %s : %w", conversationID, err)
	}
	return toDomainProfile(&dbProf), nil
}
