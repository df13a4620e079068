package domain

// ConfigRepository defines the interface for managing application-level settings
// that live in the database rather than the config file.
type ConfigRepository interface {
	// GetDisclaimer retrieves the disclaimer text appended to every answer.
	GetDisclaimer() (string, error)

	// SetDisclaimer updates the disclaimer text.
	SetDisclaimer(text string) error

	// GetTopics retrieves the catalogue of focus areas offered by the profile form.
	GetTopics() ([]string, error)

	// SetTopics updates the catalogue of focus areas.
	SetTopics(topics []string) error
}
